package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"zoo-management/internal/router"
)

type principal struct {
	userID string
	role   string
}

var (
	anonymous = principal{}
	admin     = principal{userID: "admin-1", role: "admin"}
	manager   = principal{userID: "manager-1", role: "manager"}
	keeper    = principal{userID: "keeper-1", role: "animal_care"}
	guest     = principal{userID: "visitor-1", role: "visitor"}
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: nil,
		PasswordCost: bcrypt.MinCost,
		Location:     time.UTC,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "GET", "/health", anonymous, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/metrics", anonymous, nil)
	if st != http.StatusOK || !strings.Contains(string(body), "zoo_http_requests_total") {
		t.Fatalf("expected metrics exposition, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "GET", "/nope", anonymous, nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", st)
	}
}

func TestHTTP_Authorization(t *testing.T) {
	ts := newServer(t)

	// Lecturas: autenticado
	if st, _ := doReq(t, ts.URL, "GET", "/animals", anonymous, nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/animals", guest, nil); st != http.StatusOK {
		t.Fatalf("expected 200 for authenticated read, got %d", st)
	}

	// Escrituras: capability del rol
	exhibit := map[string]any{"name": "Reptile House", "type": "indoor", "theme": "Desert"}
	if st, _ := doReq(t, ts.URL, "POST", "/exhibits", guest, exhibit); st != http.StatusForbidden {
		t.Fatalf("expected 403 for visitor creating exhibit, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/exhibits", keeper, exhibit); st != http.StatusForbidden {
		t.Fatalf("expected 403 for animal_care creating exhibit, got %d", st)
	}
	if st, body := doReq(t, ts.URL, "POST", "/exhibits", manager, exhibit); st != http.StatusCreated {
		t.Fatalf("expected 201 for manager, got %d body=%s", st, string(body))
	}
	if st, _ := doReq(t, ts.URL, "GET", "/users", manager, nil); st != http.StatusForbidden {
		t.Fatalf("expected 403 for manager listing users, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/users", admin, nil); st != http.StatusOK {
		t.Fatalf("expected 200 for admin listing users, got %d", st)
	}
}

func TestHTTP_EndToEnd_ZooDay(t *testing.T) {
	ts := newServer(t)

	// 1) Exhibit con lugar para un solo animal
	exhibitID := createID(t, ts.URL, "/exhibits", admin, map[string]any{
		"name":     "Savanna",
		"type":     "outdoor",
		"theme":    "Africa",
		"status":   "open",
		"capacity": map[string]any{"animals": 1, "visitors": 50},
	})

	// 2) El primer animal entra, el segundo choca con la capacidad
	animal := func(name string) map[string]any {
		return map[string]any{
			"name":          name,
			"species":       "Lion",
			"gender":        "male",
			"birth_date":    "2018-04-01",
			"origin":        "captive_bred",
			"exhibit_id":    exhibitID,
			"is_endangered": true,
			"diet":          map[string]any{"primary": "meat", "feeding_frequency": "daily"},
		}
	}
	createID(t, ts.URL, "/animals", keeper, animal("Leo"))
	{
		st, body := doReq(t, ts.URL, "POST", "/animals", keeper, animal("Simba"))
		if st != http.StatusConflict {
			t.Fatalf("expected 409 when exhibit is full, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/exhibits/"+exhibitID, guest, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get exhibit, got %d", st)
		}
		var ex struct {
			Animals          []string `json:"animals"`
			CurrentOccupancy struct {
				Animals int `json:"animals"`
			} `json:"current_occupancy"`
		}
		decodeData(t, body, &ex)
		if len(ex.Animals) != 1 || ex.CurrentOccupancy.Animals != 1 {
			t.Fatalf("expected one animal in exhibit, got %+v", ex)
		}
	}

	// 3) Alta pública de visitante y compra de ticket para hoy
	visitorID := createID(t, ts.URL, "/visitors", anonymous, map[string]any{
		"first_name": "Ana",
		"last_name":  "Pérez",
		"email":      "ana@example.com",
		"source":     "website",
	})
	today := time.Now().UTC().Format("2006-01-02")

	var ticket struct {
		ID       string  `json:"id"`
		TicketID string  `json:"ticket_id"`
		Price    float64 `json:"price"`
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/tickets", anonymous, map[string]any{
			"visitor_id":     visitorID,
			"type":           "adult",
			"price":          30,
			"payment_method": "credit_card",
			"visit_date":     today,
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 purchase, got %d body=%s", st, string(body))
		}
		decodeData(t, body, &ticket)
		if !strings.HasPrefix(ticket.TicketID, "TKT-") {
			t.Fatalf("unexpected ticket id %q", ticket.TicketID)
		}
	}

	// 4) La validación gana una sola vez
	{
		st, body := doReq(t, ts.URL, "POST", "/tickets/validate/"+ticket.TicketID, anonymous, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 first validation, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "POST", "/tickets/validate/"+ticket.TicketID, anonymous, nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 second validation, got %d", st)
		}
	}

	// 5) El dashboard ve la compra (la compra invalida el cache)
	{
		st, body := doReq(t, ts.URL, "GET", "/analytics/dashboard", guest, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 dashboard, got %d body=%s", st, string(body))
		}
		var overview struct {
			TotalAnimals      int     `json:"total_animals"`
			TotalTickets      int     `json:"total_tickets"`
			TodayRevenue      float64 `json:"today_revenue"`
			EndangeredAnimals int     `json:"endangered_animals"`
		}
		decodeData(t, body, &overview)
		if overview.TotalAnimals != 1 || overview.TotalTickets != 1 || overview.EndangeredAnimals != 1 {
			t.Fatalf("unexpected overview %+v", overview)
		}
		if overview.TodayRevenue != 30 {
			t.Fatalf("expected today revenue 30, got %v", overview.TodayRevenue)
		}
	}

	// 6) Reporte financiero y su export
	{
		if st, _ := doReq(t, ts.URL, "POST", "/reports/financial", keeper, map[string]any{
			"start_date": today,
			"end_date":   time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02"),
		}); st != http.StatusForbidden {
			t.Fatalf("expected 403 financial report for animal_care, got %d", st)
		}

		reportID := createID(t, ts.URL, "/reports/financial", manager, map[string]any{
			"period":     "daily",
			"start_date": today,
			"end_date":   time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02"),
		})

		st, body := doReq(t, ts.URL, "GET", "/reports/"+reportID+"/export", guest, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 export, got %d body=%s", st, string(body))
		}
		if !json.Valid(body) {
			t.Fatalf("export is not json: %s", string(body))
		}

		st, _ = doReq(t, ts.URL, "PUT", "/reports/"+reportID+"/publish", manager, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 publish, got %d", st)
		}
	}
}

func TestHTTP_RegisterAndLogin(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "POST", "/auth/register", anonymous, map[string]any{
		"first_name": "Sam",
		"last_name":  "Keeper",
		"email":      "sam@example.com",
		"password":   "secret1",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d body=%s", st, string(body))
	}

	st, _ = doReq(t, ts.URL, "POST", "/auth/register", anonymous, map[string]any{
		"first_name": "Sam",
		"last_name":  "Again",
		"email":      "sam@example.com",
		"password":   "secret1",
	})
	if st != http.StatusConflict {
		t.Fatalf("expected 409 duplicated email, got %d", st)
	}

	st, body = doReq(t, ts.URL, "POST", "/auth/login", anonymous, map[string]any{
		"email":    "sam@example.com",
		"password": "secret1",
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 login, got %d body=%s", st, string(body))
	}
	var sess struct {
		Token string `json:"token"`
	}
	decodeData(t, body, &sess)
	if sess.Token == "" {
		t.Fatalf("expected token in login response")
	}

	st, _ = doReq(t, ts.URL, "POST", "/auth/login", anonymous, map[string]any{
		"email":    "sam@example.com",
		"password": "wrong-password",
	})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 wrong password, got %d", st)
	}
}

func createID(t *testing.T, baseURL, path string, p principal, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", path, p, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 POST %s, got %d body=%s", path, st, string(body))
	}
	var out struct {
		ID string `json:"id"`
	}
	decodeData(t, body, &out)
	if out.ID == "" {
		t.Fatalf("POST %s: missing id in %s", path, string(body))
	}
	return out.ID
}

func decodeData(t *testing.T, body []byte, dst any) {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("json unmarshal envelope: %v body=%s", err, string(body))
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("json unmarshal data: %v body=%s", err, string(body))
	}
}

func doReq(t *testing.T, baseURL, method, path string, p principal, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.userID != "" {
		req.Header.Set("X-Debug-User-ID", p.userID)
		req.Header.Set("X-Debug-Role", p.role)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
