package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	uuid "github.com/satori/go.uuid"
)

// MachineID retrieves an ID identifying the machine. When the platform
// doesn't provide one a random ID is used for this run.
func MachineID() string {
	id, err := machineid.ProtectedID("twinboard")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return uuid.NewV4().String()
	}
	return id[:12]
}
