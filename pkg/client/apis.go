package client

import (
	"net/url"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/xrdlab/sputtercal/pkg/calibration"
	"github.com/xrdlab/sputtercal/pkg/powerselect"
)

// Target is the summary of a served calibration table.
type Target struct {
	Name        string `json:"name"`
	Element     string `json:"element"`
	Date        string `json:"date,omitempty"`
	TableMotion string `json:"tableMotion,omitempty"`
	Rows        int    `json:"rows"`
}

func (c *Client) GetTargets() ([]Target, error) {
	var targets []Target
	if err := c.Get("/targets", nil, &targets); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list targets")
	}
	return targets, nil
}

func (c *Client) GetFit(name string) (*calibration.Fit, error) {
	var fit calibration.Fit
	if err := c.Get("/targets/"+url.PathEscape(name)+"/fit", nil, &fit); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get fit of %s", name)
	}
	return &fit, nil
}

func (c *Client) GetRotatingEstimate(name string) (*calibration.RotatingEstimate, error) {
	var est calibration.RotatingEstimate
	if err := c.Get("/targets/"+url.PathEscape(name)+"/rotating", nil, &est); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get rotating estimate of %s", name)
	}
	return &est, nil
}

func (c *Client) SelectPowers(x, y, z string, power float64) (*powerselect.Selection, error) {
	q := url.Values{}
	q.Set("x", x)
	q.Set("y", y)
	q.Set("z", z)
	q.Set("power", strconv.FormatFloat(power, 'g', -1, 64))

	var sel powerselect.Selection
	if err := c.Get("/powerselect", q, &sel); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to select powers")
	}
	return &sel, nil
}

func (c *Client) GetVersion() (version, commit string, err error) {
	var v struct {
		Version string `json:"version"`
		Commit  string `json:"commit"`
	}
	if err := c.Get("/version", nil, &v); err != nil {
		return "", "", pkgerrors.Wrap(err, "failed to get server version")
	}
	return v.Version, v.Commit, nil
}
