//go:build integration
// +build integration

package cases

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/baechuer/blood-drive-service/test/integration/infra"
	"github.com/baechuer/blood-drive-service/test/integration/infra/wait"
)

type Env struct {
	BaseURL   string
	DBURL     string
	JWTSecret string
	JWTIssuer string

	OrganizerToken string
	OtherOrgToken  string
	DonorToken     string
}

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("missing env %s", k)
	}
	return v
}

func setup(t *testing.T) Env {
	t.Helper()

	e := Env{
		BaseURL:   mustEnv(t, "DRIVE_BASE_URL"),
		DBURL:     mustEnv(t, "DATABASE_URL"),
		JWTSecret: mustEnv(t, "JWT_SECRET"),
		JWTIssuer: mustEnv(t, "JWT_ISSUER"),
	}

	if err := wait.HTTP200(e.BaseURL+"/healthz", 10*time.Second); err != nil {
		t.Fatalf("blood-drive-service not ready: %v", err)
	}

	db, err := infra.OpenDB(e.DBURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := infra.PingDB(db); err != nil {
		t.Fatalf("ping db: %v", err)
	}
	if err := infra.ResetEvents(db); err != nil {
		t.Fatalf("reset events: %v", err)
	}

	e.OrganizerToken = token(t, e, "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", "organizer")
	e.OtherOrgToken = token(t, e, "33333333-3333-3333-3333-333333333333", "organizer")
	e.DonorToken = token(t, e, "11111111-1111-1111-1111-111111111111", "donor")
	return e
}

func token(t *testing.T, e Env, uid, role string) string {
	t.Helper()
	tok, err := infra.MakeToken(e.JWTSecret, e.JWTIssuer, uid, role, 15*time.Minute)
	if err != nil {
		t.Fatalf("make %s token: %v", role, err)
	}
	return tok
}

type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Meta    map[string]string `json:"meta"`
	} `json:"error,omitempty"`
}

func doJSON(t *testing.T, method, url, token string, body any) (int, Envelope) {
	t.Helper()

	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env Envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

// driveBody is a valid create payload starting daysAhead from today.
func driveBody(title string, daysAhead, capacity int) map[string]any {
	return map[string]any{
		"title":              title,
		"organization_name":  "Red Cross",
		"description":        "Community blood drive",
		"location":           "Town Hall",
		"contact_email":      "drive@example.org",
		"contact_phone":      "555-0100",
		"blood_types_needed": []string{"O-", "A+"},
		"start_date":         time.Now().AddDate(0, 0, daysAhead).Format("2006-01-02"),
		"time_range":         "9:00 AM - 5:00 PM",
		"expected_capacity":  capacity,
	}
}

func createDrive(t *testing.T, e Env, title string, capacity int) string {
	t.Helper()
	code, env := doJSON(t, "POST", e.BaseURL+"/drive/v1/events", e.OrganizerToken, driveBody(title, 7, capacity))
	if code != 201 {
		t.Fatalf("create want 201 got %d err=%v", code, env.Error)
	}
	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &created)
	if created.ID == "" {
		t.Fatalf("missing id")
	}
	return created.ID
}

func eventURL(e Env, id string, parts ...string) string {
	u := fmt.Sprintf("%s/drive/v1/events/%s", e.BaseURL, id)
	for _, p := range parts {
		u += "/" + p
	}
	return u
}
