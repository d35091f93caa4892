package config

import "github.com/sirupsen/logrus"

type Config interface {
	// MaxPower is the highest power (W) the sputter guns may be set to.
	MaxPower() float64
	// MaskScale scales the Y/Z rate when X follows its linear estimate.
	MaskScale() float64
	// DataDir is the directory holding calibration files.
	DataDir() string
	// ListenAddr is the address the HTTP API listens on.
	ListenAddr() string

	SetMaxPower(float64)
	SetMaskScale(float64)
	SetDataDir(string)
	SetListenAddr(string)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
