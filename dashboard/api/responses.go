package api

import (
	"encoding/json"
	"net/http"

	"github.com/absmach/cleanroom/federation"
	"github.com/absmach/cleanroom/store"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*stateRes)(nil)
	_ supermq.Response = (*inviteRes)(nil)
	_ supermq.Response = (*syncStatsRes)(nil)
	_ supermq.Response = (*uploadRes)(nil)
	_ supermq.Response = (*rawRes)(nil)
	_ supermq.Response = (*emptyRes)(nil)
)

type stateRes struct {
	store.State
}

func (res stateRes) Code() int {
	return http.StatusOK
}

func (res stateRes) Headers() map[string]string {
	return map[string]string{}
}

func (res stateRes) Empty() bool {
	return false
}

type inviteRes struct {
	federation.Invite
}

func (res inviteRes) Code() int {
	return http.StatusCreated
}

func (res inviteRes) Headers() map[string]string {
	return map[string]string{}
}

func (res inviteRes) Empty() bool {
	return false
}

type syncStatsRes struct {
	Stats []store.SyncStatsEntry `json:"stats"`
}

func (res syncStatsRes) Code() int {
	return http.StatusOK
}

func (res syncStatsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res syncStatsRes) Empty() bool {
	return false
}

type uploadRes struct {
	store.UploadRecord
}

func (res uploadRes) Code() int {
	if res.Status == store.UploadSuccess {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res uploadRes) Headers() map[string]string {
	return map[string]string{}
}

func (res uploadRes) Empty() bool {
	return false
}

// rawRes passes a remote payload through unchanged.
type rawRes struct {
	json.RawMessage
}

func (res rawRes) Code() int {
	return http.StatusOK
}

func (res rawRes) Headers() map[string]string {
	return map[string]string{}
}

func (res rawRes) Empty() bool {
	return false
}

type emptyRes struct{}

func (res emptyRes) Code() int {
	return http.StatusNoContent
}

func (res emptyRes) Headers() map[string]string {
	return map[string]string{}
}

func (res emptyRes) Empty() bool {
	return true
}
