package naukri

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

const (
	loginPath    = "/central-login-services/v1/login"
	otpLoginPath = "/central-login-services/v0/otp-login"

	mfaFlowID      = "mfa-login-email"
	mfaRequiredMsg = "MFA required"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type otpLoginRequest struct {
	FlowID   string `json:"flowId"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

// loginResponse is the part of the login payload the client reads.
type loginResponse struct {
	Cookies []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"cookies"`
	Message string `json:"message"`
}

// Login submits the credentials. A 403 whose message is "MFA required" is the
// portal's MFA challenge and is reported through LoginResponse.MFARequired.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.LoginResponse, error) {
	const op = "login"

	req, err := c.jsonRequest(op, http.MethodPost, loginPath, loginHeaders, "", loginRequest{
		Username: creds.Username,
		Password: creds.Password,
	})
	if err != nil {
		return model.LoginResponse{}, err
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return model.LoginResponse{}, err
	}

	if resp.status == http.StatusForbidden {
		var payload loginResponse
		if json.Unmarshal(resp.body, &payload) == nil && payload.Message == mfaRequiredMsg {
			return model.LoginResponse{MFARequired: true}, nil
		}
	}
	if resp.status < 200 || resp.status > 299 {
		return model.LoginResponse{}, apiError(op, resp)
	}

	return loginCookies(op, resp)
}

// VerifyOTP completes an MFA challenge with the emailed code.
func (c *Client) VerifyOTP(ctx context.Context, username, code string) (model.LoginResponse, error) {
	const op = "verify otp"

	req, err := c.jsonRequest(op, http.MethodPost, otpLoginPath, loginHeaders, "", otpLoginRequest{
		FlowID:   mfaFlowID,
		Token:    code,
		Username: username,
	})
	if err != nil {
		return model.LoginResponse{}, err
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return model.LoginResponse{}, err
	}

	return loginCookies(op, resp)
}

// loginCookies merges the JSON cookie list with Set-Cookie headers. Body
// cookies come first so they win on name collisions.
func loginCookies(op string, resp response) (model.LoginResponse, error) {
	var out model.LoginResponse

	if len(resp.body) > 0 {
		var payload loginResponse
		if err := decode(op, resp, &payload); err != nil {
			return model.LoginResponse{}, err
		}
		for _, c := range payload.Cookies {
			out.Cookies = append(out.Cookies, model.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	for _, c := range resp.cookies {
		out.Cookies = append(out.Cookies, model.Cookie{Name: c.Name, Value: c.Value})
	}

	return out, nil
}
