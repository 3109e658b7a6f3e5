package cli

import (
	"github.com/absmach/cleanroom/dashboard"
)

var svc dashboard.Service

// SetService sets the dashboard service the commands act on.
func SetService(s dashboard.Service) {
	svc = s
}
