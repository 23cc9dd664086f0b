package naukri

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

const (
	profileBase        = "/cloudgateway-mynaukri/resman-aggregator-services"
	profilePath        = profileBase + "/v2/users/self?expand_level=4"
	fullProfilesPath   = profileBase + "/v1/users/self/fullprofiles"
	profileResumeRoute = profileBase + "/v0/users/self/profiles/"
)

// profileResponse is the subset of the profile document the client reads.
type profileResponse struct {
	OnlineProfile []struct {
		ProfileID flexString `json:"profileId"`
	} `json:"onlineProfile"`
	Profile []struct {
		KeySkills string `json:"keySkills"`
	} `json:"profile"`
}

type updateSkillsRequest struct {
	Profile struct {
		KeySkills string `json:"keySkills"`
	} `json:"profile"`
	ProfileID string `json:"profileId"`
}

type updateSkillsResponse struct {
	Profile json.RawMessage `json:"profile"`
}

// FetchProfile reads the profile id and key skills. Missing fields come back
// empty; deciding whether that is an error is the caller's job.
func (c *Client) FetchProfile(ctx context.Context, token string) (model.Profile, error) {
	const op = "fetch profile"

	req, err := c.jsonRequest(op, http.MethodGet, profilePath, profileHeaders, token, nil)
	if err != nil {
		return model.Profile{}, err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return model.Profile{}, err
	}

	var payload profileResponse
	if err := decode(op, resp, &payload); err != nil {
		return model.Profile{}, err
	}

	var p model.Profile
	if len(payload.OnlineProfile) > 0 {
		p.ProfileID = string(payload.OnlineProfile[0].ProfileID)
	}
	if len(payload.Profile) > 0 {
		p.KeySkills = payload.Profile[0].KeySkills
	}
	return p, nil
}

// UpdateSkills writes the key skills string. The portal echoes the profile
// object on success.
func (c *Client) UpdateSkills(ctx context.Context, token, profileID, skills string) (bool, error) {
	const op = "update skills"

	var body updateSkillsRequest
	body.Profile.KeySkills = skills
	body.ProfileID = profileID

	req, err := c.jsonRequest(op, http.MethodPost, fullProfilesPath, profileHeaders, token, body)
	if err != nil {
		return false, err
	}
	req.override = http.MethodPut

	resp, err := c.do(ctx, req)
	if err != nil {
		return false, err
	}

	var payload updateSkillsResponse
	if err := decode(op, resp, &payload); err != nil {
		return false, err
	}
	return present(payload.Profile), nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// present reports whether raw holds a non-null value.
func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// truthy follows the portal's loose status flags: true, non-zero numbers, and
// non-empty strings count as set.
func truthy(raw json.RawMessage) bool {
	if !present(raw) {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		if t == "" {
			return false
		}
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
		return true
	default:
		return true
	}
}
