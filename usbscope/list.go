package main

import (
	"fmt"
	"io"

	"github.com/itohio/usbscope/pkg/device"
)

func listDevices(w io.Writer) error {
	devices, err := device.ListUSB()
	if err != nil {
		return fmt.Errorf("failed to list USB devices: %w", err)
	}
	if len(devices) == 0 {
		fmt.Fprintln(w, "no USB devices found")
		return nil
	}
	for _, d := range devices {
		fmt.Fprintln(w, d)
	}
	return nil
}

func listPorts(w io.Writer) error {
	ports, err := device.Ports()
	if err != nil {
		return fmt.Errorf("failed to list serial ports: %w", err)
	}
	printPorts(w, ports)
	return nil
}

func printPorts(w io.Writer, ports []device.Port) {
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return
	}
	for _, p := range ports {
		if p.Description != "" && p.Description != p.Name {
			fmt.Fprintf(w, "%s (%s)\n", p.Name, p.Description)
			continue
		}
		fmt.Fprintln(w, p.Name)
	}
}
