package login

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/router"
	"github.com/eventum-app/eventum/pkg/vtest"
)

func open(t *testing.T) *vtest.Harness {
	t.Helper()
	h := vtest.New(t)
	h.Models.User = model.User{ID: 7, Name: "Ann"}
	h.Handle(router.Route{Pattern: Path, Factory: Factory(Deps{Models: h.Models})})
	if err := h.Navigate(Path); err != nil {
		t.Fatal(err)
	}
	return h
}

func message(input *dom.Element) string {
	if prev := input.PreviousSibling(); prev != nil && prev.HasClass("validation-error") {
		return prev.TextContent()
	}
	return ""
}

func TestCredentials(t *testing.T) {
	tests := []struct {
		login, password string
		want            model.Credentials
		loginMsg        string
		passwordMsg     string
	}{
		{login: "ann@example.com", password: "pw", want: model.Credentials{Email: "ann@example.com", Password: "pw"}},
		{login: " +79161234567 ", password: "pw", want: model.Credentials{Phone: "+79161234567", Password: "pw"}},
		{login: "ann@", password: "pw", want: model.Credentials{Email: "ann@", Password: "pw"}, loginMsg: MsgBadEmail},
		{login: "ann@localhost", password: "pw", want: model.Credentials{Email: "ann@localhost", Password: "pw"}, loginMsg: MsgBadEmail},
		{login: "12345", password: "pw", want: model.Credentials{Phone: "12345", Password: "pw"}, loginMsg: MsgBadPhone},
		{login: "", password: "", loginMsg: MsgLoginMissing, passwordMsg: MsgNoPassword},
	}
	for _, tt := range tests {
		t.Run(tt.login, func(t *testing.T) {
			got, loginMsg, passwordMsg := credentials(tt.login, tt.password)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("credentials mismatch (-want +got):\n%s", diff)
			}
			if loginMsg != tt.loginMsg || passwordMsg != tt.passwordMsg {
				t.Errorf("messages = %q, %q; want %q, %q", loginMsg, passwordMsg, tt.loginMsg, tt.passwordMsg)
			}
		})
	}
}

func TestBlurValidatesAndFocusClears(t *testing.T) {
	h := open(t)
	input := h.Bound("login")

	input.Input("ann@")
	input.Dispatch(dom.NewEvent("blur"))
	if got := message(input); got != MsgBadEmail {
		t.Errorf("message after blur = %q, want %q", got, MsgBadEmail)
	}
	input.Dispatch(dom.NewEvent("blur"))
	if n := len(input.Parent().Children()); n != 2 {
		t.Errorf("repeated blur stacked messages: %d children", n)
	}

	input.Dispatch(dom.NewEvent("focus"))
	if got := message(input); got != "" {
		t.Errorf("message after focus = %q", got)
	}
	if input.HasClass("input__auth_incorrect") {
		t.Error("invalid class left after focus")
	}
}

func TestSubmitInvalidDoesNotCall(t *testing.T) {
	h := open(t)
	h.Bound("login").Input("12")
	h.Bound("login-form").Submit()
	h.Settle()

	if got := message(h.Bound("login")); got != MsgBadPhone {
		t.Errorf("login message = %q", got)
	}
	if got := message(h.Bound("password")); got != MsgNoPassword {
		t.Errorf("password message = %q", got)
	}
	if n := h.Models.CallCount("login"); n != 0 {
		t.Errorf("login calls = %d, want 0", n)
	}
}

func TestSubmitOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantPath string
		check    func(t *testing.T, h *vtest.Harness)
	}{
		{
			name:     "accepted",
			wantPath: AfterLogin,
			check: func(t *testing.T, h *vtest.Harness) {
				if diff := cmp.Diff([]string{"/", Path, AfterLogin}, h.History.Entries()); diff != "" {
					t.Errorf("history mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:     "rejected",
			err:      &model.Error{Op: "login", Status: 200, Message: "Wrong password", Err: model.ErrLoginRejected},
			wantPath: Path,
			check: func(t *testing.T, h *vtest.Harness) {
				if got := message(h.Bound("login")); got != "Wrong password" {
					t.Errorf("login message = %q", got)
				}
			},
		},
		{
			name:     "server error",
			err:      &model.Error{Op: "login", Status: 500, Err: model.ErrServer},
			wantPath: Path,
			check: func(t *testing.T, h *vtest.Harness) {
				h.ExpectText("error-message", "Server error")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := open(t)
			h.Models.LoginErr = tt.err
			h.Bound("login").Input("ann@example.com")
			h.Bound("password").Input("secret")
			h.Bound("login-form").Submit()
			h.Settle()

			if got := h.History.Current(); got != tt.wantPath {
				t.Errorf("current = %q, want %q", got, tt.wantPath)
			}
			tt.check(t, h)
		})
	}
}
