// Package analysis translates analysis selections into requests for the
// remote analysis service. Building a request never touches the network.
package analysis

import (
	"fmt"
	"slices"
	"strings"

	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/absmach/cleanroom/store"
)

type MetricType string

const (
	Univariate MetricType = "univariate"
	Bivariate  MetricType = "bivariate"
	Predictive MetricType = "predictive"
)

// AllCohorts is the cohort label meaning no cohort filter.
const AllCohorts = "All"

const (
	ParamConditional   = "need_bi_conditional"
	ParamConditionalTD = "need_bi_conditional_td"
)

// Algorithm is a model building algorithm offered by the analysis service.
type Algorithm string

const (
	LogisticRegression Algorithm = "logreg"
	RidgeRegression    Algorithm = "ridgereg"
	RandomForest       Algorithm = "randomforest"
	SVM                Algorithm = "svm"
)

var Algorithms = []Algorithm{LogisticRegression, RidgeRegression, RandomForest, SVM}

// OverviewAttributes are the attributes summarised on the overview page.
var OverviewAttributes = []string{"age", "bmi", "sex"}

// ParseMetricType accepts both the long names and the wire names.
func ParseMetricType(s string) (MetricType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "univariate", "uni":
		return Univariate, nil
	case "bivariate", "bi":
		return Bivariate, nil
	case "predictive", "pred":
		return Predictive, nil
	default:
		return "", fmt.Errorf("%w: unknown metric type %q", pkgerrors.ErrInvalidSelection, s)
	}
}

// Wire returns the metric query parameter understood by the explore endpoint.
func (m MetricType) Wire() string {
	switch m {
	case Univariate:
		return "uni"
	case Bivariate:
		return "bi"
	default:
		return ""
	}
}

// Request is an explore request ready to be executed.
type Request struct {
	Metric      MetricType `json:"metric"`
	Attributes  []string   `json:"attributes"`
	Cohort      string     `json:"cohort,omitempty"`
	Conditional bool       `json:"conditional"`
}

// Build validates a selection and turns it into a request. Attribute names
// are trimmed and de-duplicated. An empty selection fails with
// ErrInvalidSelection. For bivariate requests a cohort other than AllCohorts
// is prepended to the attributes and conditional statistics are requested.
func Build(metric MetricType, attributes []string, cohort string) (Request, error) {
	switch metric {
	case Univariate, Bivariate, Predictive:
	default:
		return Request{}, fmt.Errorf("%w: unknown metric type %q", pkgerrors.ErrInvalidSelection, metric)
	}

	attrs := store.UniqueAttributes(attributes)
	if len(attrs) == 0 {
		return Request{}, fmt.Errorf("%w: no attributes selected", pkgerrors.ErrInvalidSelection)
	}

	req := Request{Metric: metric, Attributes: attrs}

	cohort = strings.TrimSpace(cohort)
	if metric == Bivariate && cohort != "" && cohort != AllCohorts {
		rest := slices.DeleteFunc(attrs, func(a string) bool { return a == cohort })
		req.Attributes = append([]string{cohort}, rest...)
		req.Cohort = cohort
		req.Conditional = true
	}

	return req, nil
}

// Body returns the explore request body.
func (r Request) Body() sdk.ExploreReq {
	body := sdk.ExploreReq{InputAttributeNames: slices.Clone(r.Attributes)}
	if r.Conditional {
		body.ExtraParameters = map[string]bool{
			ParamConditional:   true,
			ParamConditionalTD: true,
		}
	}

	return body
}

// Params returns the parameters identifying the request in the query cache.
func (r Request) Params() map[string]any {
	body := r.Body()
	params := map[string]any{
		"metric":              r.Metric.Wire(),
		"inputAttributeNames": body.InputAttributeNames,
	}
	if body.ExtraParameters != nil {
		params["extraParameters"] = body.ExtraParameters
	}

	return params
}

// ModelRequest is a validated model building request.
type ModelRequest struct {
	Algorithm Algorithm `json:"algorithm"`
	Inputs    []string  `json:"inputs"`
	Targets   []string  `json:"targets"`
}

// BuildModel validates a predictive selection: both attribute sets must be
// non-empty and disjoint, and the algorithm must be a known one.
func BuildModel(algorithm Algorithm, inputs, targets []string) (ModelRequest, error) {
	if !slices.Contains(Algorithms, algorithm) {
		return ModelRequest{}, fmt.Errorf("%w: unknown algorithm %q", pkgerrors.ErrInvalidSelection, algorithm)
	}

	in := store.UniqueAttributes(inputs)
	out := store.UniqueAttributes(targets)
	if len(in) == 0 || len(out) == 0 {
		return ModelRequest{}, fmt.Errorf("%w: inputs and targets are required", pkgerrors.ErrInvalidSelection)
	}
	for _, t := range out {
		if slices.Contains(in, t) {
			return ModelRequest{}, fmt.Errorf("%w: %q is both input and target", pkgerrors.ErrInvalidSelection, t)
		}
	}

	return ModelRequest{Algorithm: algorithm, Inputs: in, Targets: out}, nil
}

func (r ModelRequest) Body() sdk.BuildModelReq {
	return sdk.BuildModelReq{
		Algorithm: string(r.Algorithm),
		Inputs:    slices.Clone(r.Inputs),
		Targets:   slices.Clone(r.Targets),
	}
}
