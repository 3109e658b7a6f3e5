package analysis_test

import (
	"testing"

	"github.com/absmach/cleanroom/analysis"
	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	cases := []struct {
		desc       string
		metric     analysis.MetricType
		attributes []string
		cohort     string
		req        analysis.Request
		err        error
	}{
		{
			desc:       "univariate",
			metric:     analysis.Univariate,
			attributes: []string{"age", "bmi"},
			req:        analysis.Request{Metric: analysis.Univariate, Attributes: []string{"age", "bmi"}},
		},
		{
			desc:       "univariate ignores cohort",
			metric:     analysis.Univariate,
			attributes: []string{"age"},
			cohort:     "Smokers",
			req:        analysis.Request{Metric: analysis.Univariate, Attributes: []string{"age"}},
		},
		{
			desc:       "duplicates and blanks removed",
			metric:     analysis.Univariate,
			attributes: []string{" age", "bmi", "age ", "", "  "},
			req:        analysis.Request{Metric: analysis.Univariate, Attributes: []string{"age", "bmi"}},
		},
		{
			desc:       "bivariate with cohort",
			metric:     analysis.Bivariate,
			attributes: []string{"age", "bmi"},
			cohort:     "Smokers",
			req: analysis.Request{
				Metric:      analysis.Bivariate,
				Attributes:  []string{"Smokers", "age", "bmi"},
				Cohort:      "Smokers",
				Conditional: true,
			},
		},
		{
			desc:       "bivariate cohort moved to the front",
			metric:     analysis.Bivariate,
			attributes: []string{"age", "Smokers", "bmi"},
			cohort:     "Smokers",
			req: analysis.Request{
				Metric:      analysis.Bivariate,
				Attributes:  []string{"Smokers", "age", "bmi"},
				Cohort:      "Smokers",
				Conditional: true,
			},
		},
		{
			desc:       "bivariate with default cohort",
			metric:     analysis.Bivariate,
			attributes: []string{"age", "bmi"},
			cohort:     analysis.AllCohorts,
			req:        analysis.Request{Metric: analysis.Bivariate, Attributes: []string{"age", "bmi"}},
		},
		{
			desc:       "predictive only validates",
			metric:     analysis.Predictive,
			attributes: []string{"age"},
			cohort:     "Smokers",
			req:        analysis.Request{Metric: analysis.Predictive, Attributes: []string{"age"}},
		},
		{
			desc:   "empty attributes",
			metric: analysis.Univariate,
			err:    pkgerrors.ErrInvalidSelection,
		},
		{
			desc:       "blank attributes",
			metric:     analysis.Bivariate,
			attributes: []string{" ", ""},
			cohort:     "Smokers",
			err:        pkgerrors.ErrInvalidSelection,
		},
		{
			desc:       "unknown metric",
			metric:     "trivariate",
			attributes: []string{"age"},
			err:        pkgerrors.ErrInvalidSelection,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			req, err := analysis.Build(tc.metric, tc.attributes, tc.cohort)
			assert.ErrorIs(t, err, tc.err)
			if tc.err == nil {
				assert.Equal(t, tc.req, req)
			}
		})
	}
}

func TestUnivariateThenCohort(t *testing.T) {
	uni, err := analysis.Build(analysis.Univariate, []string{"age", "bmi"}, "")
	require.NoError(t, err)
	assert.Equal(t, sdk.ExploreReq{InputAttributeNames: []string{"age", "bmi"}}, uni.Body())

	bi, err := analysis.Build(analysis.Bivariate, uni.Attributes, "Smokers")
	require.NoError(t, err)
	assert.Equal(t, sdk.ExploreReq{
		InputAttributeNames: []string{"Smokers", "age", "bmi"},
		ExtraParameters: map[string]bool{
			"need_bi_conditional":    true,
			"need_bi_conditional_td": true,
		},
	}, bi.Body())
	assert.Equal(t, "bi", bi.Metric.Wire())

	// the univariate request is not affected
	assert.Equal(t, []string{"age", "bmi"}, uni.Attributes)
	assert.NotEqual(t, uni.Params(), bi.Params())
}

func TestParseMetricType(t *testing.T) {
	cases := []struct {
		in     string
		metric analysis.MetricType
		err    error
	}{
		{in: "uni", metric: analysis.Univariate},
		{in: "Univariate", metric: analysis.Univariate},
		{in: "bi", metric: analysis.Bivariate},
		{in: " bivariate ", metric: analysis.Bivariate},
		{in: "predictive", metric: analysis.Predictive},
		{in: "pred", metric: analysis.Predictive},
		{in: "PRED", metric: analysis.Predictive},
		{in: "histogram", err: pkgerrors.ErrInvalidSelection},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			metric, err := analysis.ParseMetricType(tc.in)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.metric, metric)
		})
	}
}

func TestBuildModel(t *testing.T) {
	cases := []struct {
		desc      string
		algorithm analysis.Algorithm
		inputs    []string
		targets   []string
		err       error
	}{
		{
			desc:      "valid",
			algorithm: analysis.RandomForest,
			inputs:    []string{"age", "bmi", "age"},
			targets:   []string{"smoker"},
		},
		{
			desc:      "overlap",
			algorithm: analysis.LogisticRegression,
			inputs:    []string{"age", "bmi"},
			targets:   []string{"bmi"},
			err:       pkgerrors.ErrInvalidSelection,
		},
		{
			desc:      "overlap after trimming",
			algorithm: analysis.SVM,
			inputs:    []string{"age"},
			targets:   []string{" age "},
			err:       pkgerrors.ErrInvalidSelection,
		},
		{
			desc:      "no targets",
			algorithm: analysis.RidgeRegression,
			inputs:    []string{"age"},
			err:       pkgerrors.ErrInvalidSelection,
		},
		{
			desc:      "unknown algorithm",
			algorithm: "xgboost",
			inputs:    []string{"age"},
			targets:   []string{"bmi"},
			err:       pkgerrors.ErrInvalidSelection,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			req, err := analysis.BuildModel(tc.algorithm, tc.inputs, tc.targets)
			assert.ErrorIs(t, err, tc.err)
			if tc.err == nil {
				assert.Equal(t, sdk.BuildModelReq{
					Algorithm: "randomforest",
					Inputs:    []string{"age", "bmi"},
					Targets:   []string{"smoker"},
				}, req.Body())
			}
		})
	}
}
