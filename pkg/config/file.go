package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xrdlab/sputtercal/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		MaxPower: ptr.To(80.0),
		// Y/Z rate boost used with the 50/100 mask when X is on its
		// linear estimate.
		MaskScale:  ptr.To(1.2),
		DataDir:    ptr.To("."),
		ListenAddr: ptr.To("127.0.0.1:8470"),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

type RawFileConfig struct {
	MaxPower   *float64 `json:"maxPower,omitempty"`
	MaskScale  *float64 `json:"maskScale,omitempty"`
	DataDir    *string  `json:"dataDir,omitempty"`
	ListenAddr *string  `json:"listenAddr,omitempty"`
}

// NewRawFileConfigFromConfig snapshots c with every default filled in.
func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	return &RawFileConfig{
		MaxPower:   ptr.To(c.MaxPower()),
		MaskScale:  ptr.To(c.MaskScale()),
		DataDir:    ptr.To(c.DataDir()),
		ListenAddr: ptr.To(c.ListenAddr()),
	}, nil
}

func (f *File) MaxPower() float64 {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.MaxPower, *defaultFileConfig.MaxPower)
}

func (f *File) MaskScale() float64 {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.MaskScale, *defaultFileConfig.MaskScale)
}

func (f *File) DataDir() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.DataDir, *defaultFileConfig.DataDir)
}

func (f *File) ListenAddr() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.ListenAddr, *defaultFileConfig.ListenAddr)
}

func (f *File) SetMaxPower(p float64) {
	if f.c == nil {
		panic("config is nil")
	}
	if p <= 0 {
		panic("max power must be positive")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.MaxPower = &p
}

func (f *File) SetMaskScale(s float64) {
	if f.c == nil {
		panic("config is nil")
	}
	if s <= 0 {
		panic("mask scale must be positive")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.MaskScale = &s
}

func (f *File) SetDataDir(dir string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.DataDir = &dir
}

func (f *File) SetListenAddr(addr string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.ListenAddr = &addr
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	if conf.MaxPower != nil && *conf.MaxPower <= 0 {
		return pkgerrors.Errorf("maxPower in %s must be positive, got %v", f.filepath, *conf.MaxPower)
	}
	if conf.MaskScale != nil && *conf.MaskScale <= 0 {
		return pkgerrors.Errorf("maskScale in %s must be positive, got %v", f.filepath, *conf.MaskScale)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"maxPower":   f.MaxPower(),
		"maskScale":  f.MaskScale(),
		"dataDir":    f.DataDir(),
		"listenAddr": f.ListenAddr(),
	}
}
