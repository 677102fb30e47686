package utils

import (
	"log/slog"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	deviceID     string
	deviceIDOnce sync.Once
)

// DeviceID returns an app-scoped, hashed machine id. It never exposes the raw id.
func DeviceID() string {
	deviceIDOnce.Do(func() {
		id, err := machineid.ProtectedID("totalapp")
		if err != nil {
			slog.Debug("machine id unavailable", "error", err)
			id = "unknown"
		}
		deviceID = id
	})
	return deviceID
}
