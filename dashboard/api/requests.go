package api

import (
	"encoding/json"
	"errors"

	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/dashboard"
	"github.com/absmach/cleanroom/federation"
	"github.com/absmach/cleanroom/store"
	apiutil "github.com/absmach/supermq/api/http/util"
)

var (
	errMissingPassword = errors.New("missing password")
	errMissingInvite   = errors.New("missing invite")
	errEmptyFile       = errors.New("empty file")
	errMissingMetric   = errors.New("missing metric")
)

type settingsReq struct {
	dashboard.Settings
}

func (req settingsReq) validate() error {
	return nil
}

type createFederationReq struct {
	WorkspaceID  string                 `json:"pid"`
	NATSHosts    string                 `json:"natsHosts,omitempty"`
	SyncSchedule string                 `json:"syncSchedule,omitempty"`
	Config       *store.WorkspaceConfig `json:"config,omitempty"`
}

func (req createFederationReq) validate() error {
	if req.WorkspaceID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

func (req createFederationReq) toRequest() federation.CreateRequest {
	hosts := req.NATSHosts
	if hosts == "" {
		hosts = federation.DefaultNATSHosts
	}
	schedule := req.SyncSchedule
	if schedule == "" {
		schedule = federation.DefaultSyncSchedule
	}

	return federation.CreateRequest{
		WorkspaceID:  req.WorkspaceID,
		Transport:    federation.Transport{NATSHosts: hosts},
		SyncSchedule: schedule,
		Config:       req.Config,
	}
}

type joinFederationReq struct {
	WorkspaceID string                 `json:"pid"`
	InviteToken string                 `json:"inviteJson"`
	Config      *store.WorkspaceConfig `json:"config,omitempty"`
}

func (req joinFederationReq) validate() error {
	if req.WorkspaceID == "" {
		return apiutil.ErrMissingID
	}
	if req.InviteToken == "" {
		return errMissingInvite
	}

	return nil
}

type inviteReq struct {
	WorkspaceID string `json:"pid"`
	Password    string `json:"password"`
}

func (req inviteReq) validate() error {
	if req.Password == "" {
		return errMissingPassword
	}

	return nil
}

type uploadReq struct {
	workspaceID string
	fileName    string
	data        []byte
}

func (req uploadReq) validate() error {
	if req.workspaceID == "" {
		return apiutil.ErrMissingID
	}
	if len(req.data) == 0 {
		return errEmptyFile
	}

	return nil
}

type projectReq struct {
	workspaceID string
}

func (req projectReq) validate() error {
	if req.workspaceID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type exploreReq struct {
	workspaceID string
	Metric      string   `json:"metric"`
	Attributes  []string `json:"attributes"`
	Cohort      string   `json:"cohort,omitempty"`
}

func (req exploreReq) validate() error {
	if req.workspaceID == "" {
		return apiutil.ErrMissingID
	}
	if req.Metric == "" {
		return errMissingMetric
	}

	return nil
}

func (req exploreReq) toRequest() (analysis.Request, error) {
	metric, err := analysis.ParseMetricType(req.Metric)
	if err != nil {
		return analysis.Request{}, err
	}

	return analysis.Build(metric, req.Attributes, req.Cohort)
}

type buildModelReq struct {
	workspaceID string
	Algorithm   string   `json:"algorithm"`
	Inputs      []string `json:"inputs"`
	Targets     []string `json:"targets"`
}

func (req buildModelReq) validate() error {
	if req.workspaceID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type predictReq struct {
	workspaceID string
	input       json.RawMessage
}

func (req predictReq) validate() error {
	if req.workspaceID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}
