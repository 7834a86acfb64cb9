package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alkime/moodtales/internal/audio"
)

// DevicesCmd lists available audio capture devices.
type DevicesCmd struct {
	Formats bool `flag:"" help:"Show the formats each device supports"`
}

// Run executes the devices command.
func (c *DevicesCmd) Run() error {
	mic := audio.NewMicrophone(audio.DefaultDeviceConfig())

	devices, err := mic.Devices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("no capture devices found")
		return nil
	}

	fmt.Println(renderDevices(devices, c.Formats))

	return nil
}

func renderDevices(devices []audio.Info, withFormats bool) string {
	headers := []string{"Device", "Default", "Formats"}
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		def := ""
		if d.IsDefault {
			def = "yes"
		}
		formats := strconv.Itoa(d.FormatCount)
		if withFormats && len(d.Formats) > 0 {
			formats = strings.Join(d.Formats, "\n")
		}
		rows = append(rows, []string{d.Name, def, formats})
	}

	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}
