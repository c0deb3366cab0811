package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"reservo/config"
	"reservo/database/repository/memory"
	"reservo/handlers"
	"reservo/models"
	"reservo/routes"
	"reservo/services/booking"
	"reservo/services/calendar"
	"reservo/services/events"
	"reservo/services/hold"
	"reservo/services/payment"
	"reservo/services/provider"
	"reservo/services/slots"
	"reservo/services/storage"
	"reservo/services/wallet"
	"reservo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 2030-01-07 is a Monday.
var now = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.MaxRequestsPerMin = 10000
	utils.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()
	clock := func() time.Time { return now }
	store := memory.NewStore()

	cal := &calendar.Aggregator{Slots: store.Slots(), Availability: store.Availability(), Logger: logger, Now: clock}
	slotSvc := &slots.DefaultSlotService{Repo: store.Availability(), Slots: store.Slots(), Calendar: cal, Logger: logger, HorizonDays: 7, Now: clock}
	holds := &hold.Manager{Slots: store.Slots(), Calendar: cal, Logger: logger, DefaultTTL: 10 * time.Minute, Now: clock}
	catalogue, err := provider.NewDefaultCatalogueService(store.Availability(), logger)
	if err != nil {
		t.Fatal(err)
	}
	ledger := wallet.NewLedger(store.Wallets(), logger)
	bus := events.NewLocalBus(logger)
	bus.Subscribe(ledger.Handle, wallet.Consumes...)

	bookings := &booking.DefaultBookingService{
		Bookings:  store.Bookings(),
		Slots:     store.Slots(),
		Catalogue: store.Availability(),
		Holds:     holds,
		Payments:  &payment.SimulatedProcessor{Logger: logger},
		Storage:   storage.NewMemoryStorage(),
		Events:    bus,
		Calendar:  cal,
		Logger:    logger,
		Now:       clock,
	}

	r := gin.New()
	routes.RegisterRoutes(r, &handlers.HandlerBundle{
		Availability: &handlers.AvailabilityHandler{Slots: slotSvc, Calendar: cal, Logger: logger},
		Holds:        &handlers.HoldHandler{Holds: holds, Logger: logger},
		Bookings:     &handlers.BookingHandler{BookingSvc: bookings, Logger: logger},
		Catalogue:    &handlers.CatalogueHandler{Catalogue: catalogue, Logger: logger},
		Wallet:       &handlers.WalletHandler{Ledger: ledger, Logger: logger},
		Health:       &handlers.HealthHandler{Checks: map[string]utils.HealthCheck{}},
	})
	return r
}

func token(t *testing.T, id string, role models.Role) string {
	t.Helper()
	tok, err := utils.GenerateToken(id, role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

type client struct {
	t     *testing.T
	r     *gin.Engine
	token string
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c client) send(req *http.Request) *httptest.ResponseRecorder {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expect(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status %d, want %d: %s", w.Code, status, w.Body.String())
	}
}

func TestBookingJourney(t *testing.T) {
	r := newRouter(t)
	anon := client{t: t, r: r}
	prov := client{t: t, r: r, token: token(t, "prov-1", models.RoleProvider)}
	alice := client{t: t, r: r, token: token(t, "client-1", models.RoleClient)}
	bob := client{t: t, r: r, token: token(t, "client-2", models.RoleClient)}

	rules := models.SetRulesRequest{Rules: []models.WeeklyRule{{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", SlotDuration: 60}}}
	expect(t, alice.do(http.MethodPut, "/api/availability/providers/prov-1/rules", rules), http.StatusForbidden)
	expect(t, prov.do(http.MethodPut, "/api/availability/providers/prov-1/rules", rules), http.StatusOK)

	services := models.SetServicesRequest{Services: []models.Service{{ID: "svc-1", Name: "Deep cleaning", PricingType: models.PricingHourly, HourlyRate: 40}}}
	expect(t, prov.do(http.MethodPut, "/api/providers/prov-1/services", services), http.StatusOK)
	listed := decode[struct{ Services []models.Service }](t, anon.do(http.MethodGet, "/api/providers/prov-1/services", nil))
	if len(listed.Services) != 1 || listed.Services[0].Currency != "USD" {
		t.Fatalf("services %+v", listed.Services)
	}

	w := anon.do(http.MethodGet, "/api/availability/providers/prov-1/timeslots?date=2030-01-07", nil)
	expect(t, w, http.StatusOK)
	day := decode[models.DaySlotsResponse](t, w)
	if len(day.Slots) != 3 {
		t.Fatalf("want 3 slots, got %d", len(day.Slots))
	}
	models.SortSlots(day.Slots)
	pick := []string{day.Slots[0].ID, day.Slots[1].ID}

	w = alice.do(http.MethodPost, "/api/availability/slots/hold", models.HoldRequest{SlotIDs: pick})
	expect(t, w, http.StatusOK)
	held := decode[models.HoldResponse](t, w)
	if !held.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Errorf("expires_at %s", held.ExpiresAt)
	}

	w = bob.do(http.MethodPost, "/api/availability/slots/hold", models.HoldRequest{SlotIDs: pick[1:]})
	expect(t, w, http.StatusConflict)
	if e := decode[utils.ErrorResponse](t, w); e.ErrorCode != "slot_conflict" || e.Refresh != "availability" {
		t.Errorf("conflict body %+v", e)
	}

	create := models.CreateBookingRequest{ProviderID: "prov-1", ServiceID: "svc-1", SlotIDs: pick}
	expect(t, anon.do(http.MethodPost, "/api/bookings", create), http.StatusUnauthorized)
	expect(t, prov.do(http.MethodPost, "/api/bookings", create), http.StatusForbidden)
	w = alice.do(http.MethodPost, "/api/bookings", create)
	expect(t, w, http.StatusCreated)
	b := decode[models.Booking](t, w)
	if b.Status != models.StatusPending || b.TotalPrice != 92 || b.PlatformFee != 12 {
		t.Fatalf("booking %+v", b)
	}
	path := "/api/bookings/" + b.ID

	expect(t, bob.do(http.MethodGet, path, nil), http.StatusNotFound)
	expect(t, prov.do(http.MethodPut, path, models.UpdateStatusRequest{Status: models.StatusAccepted}), http.StatusOK)

	w = prov.send(evidenceRequest(t, path+"/complete"))
	expect(t, w, http.StatusOK)
	b = decode[models.Booking](t, w)
	if b.Status != models.StatusAwaitingConfirmation || len(b.Completion.Evidence) != 1 {
		t.Fatalf("after complete %+v", b.Completion)
	}
	if b.Completion.Evidence[0].Caption != "kitchen" || b.Completion.Evidence[0].Type != models.EvidenceImage {
		t.Errorf("evidence %+v", b.Completion.Evidence[0])
	}

	yes := true
	w = alice.do(http.MethodPut, path+"/confirm", models.ConfirmRequest{Confirmed: &yes})
	expect(t, w, http.StatusOK)
	if got := decode[models.Booking](t, w); got.Status != models.StatusCompleted {
		t.Fatalf("status %s", got.Status)
	}
	expect(t, alice.do(http.MethodPut, path+"/cancel", nil), http.StatusConflict)

	w = prov.do(http.MethodGet, "/api/wallet", nil)
	expect(t, w, http.StatusOK)
	if wal := decode[models.Wallet](t, w); wal.AvailableBalance != 80 || wal.PendingBalance != 0 {
		t.Errorf("wallet %+v", wal)
	}
	expect(t, alice.do(http.MethodGet, "/api/wallet", nil), http.StatusForbidden)

	w = anon.do(http.MethodGet, "/api/availability/calendar/prov-1?year=2030&month=1", nil)
	expect(t, w, http.StatusOK)
	month := decode[models.CalendarMonth](t, w)
	if d := month.Days[6]; d.BookedCount != 2 || d.AvailableCount != 1 {
		t.Errorf("Jan 7 %+v", d)
	}
}

func TestHoldReleaseAndList(t *testing.T) {
	r := newRouter(t)
	prov := client{t: t, r: r, token: token(t, "prov-1", models.RoleProvider)}
	alice := client{t: t, r: r, token: token(t, "client-1", models.RoleClient)}

	rules := models.SetRulesRequest{Rules: []models.WeeklyRule{{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00", SlotDuration: 60}}}
	expect(t, prov.do(http.MethodPut, "/api/availability/providers/prov-1/rules", rules), http.StatusOK)
	day := decode[models.DaySlotsResponse](t, alice.do(http.MethodGet, "/api/availability/providers/prov-1/timeslots?date=2030-01-07", nil))
	models.SortSlots(day.Slots)

	w := alice.do(http.MethodPost, "/api/availability/slots/hold", models.HoldRequest{SlotIDs: []string{day.Slots[0].ID}})
	expect(t, w, http.StatusOK)
	held := decode[models.HoldResponse](t, w)

	w = alice.do(http.MethodPost, "/api/availability/slots/hold", models.HoldRequest{SlotIDs: []string{day.Slots[1].ID}, PreviousHoldID: held.Hold.ID})
	expect(t, w, http.StatusOK)
	swapped := decode[models.HoldResponse](t, w)

	active := decode[struct{ Holds []models.Hold }](t, alice.do(http.MethodGet, "/api/availability/slots/holds", nil))
	if len(active.Holds) != 1 || active.Holds[0].ID != swapped.Hold.ID {
		t.Fatalf("active %+v", active.Holds)
	}

	for i, want := range []int64{1, 0} {
		w = alice.do(http.MethodPost, "/api/availability/slots/release", models.ReleaseRequest{HoldID: swapped.Hold.ID})
		expect(t, w, http.StatusOK)
		if got := decode[struct{ Released int64 }](t, w); got.Released != want {
			t.Errorf("release %d freed %d", i, got.Released)
		}
	}

	w = alice.do(http.MethodPost, "/api/availability/slots/hold", models.HoldRequest{SlotIDs: []string{day.Slots[0].ID, day.Slots[0].ID}})
	expect(t, w, http.StatusBadRequest)
}

func TestBadInput(t *testing.T) {
	r := newRouter(t)
	anon := client{t: t, r: r}
	alice := client{t: t, r: r, token: token(t, "client-1", models.RoleClient)}

	expect(t, anon.do(http.MethodGet, "/api/availability/providers/prov-1/timeslots", nil), http.StatusBadRequest)
	expect(t, anon.do(http.MethodGet, "/api/availability/calendar/prov-1?month=13", nil), http.StatusBadRequest)
	expect(t, anon.do(http.MethodGet, "/api/availability/calendar/prov-1?month=june", nil), http.StatusBadRequest)
	expect(t, alice.do(http.MethodPost, "/api/bookings", map[string]any{"provider_id": "prov-1"}), http.StatusBadRequest)
	expect(t, alice.do(http.MethodGet, "/api/bookings/missing", nil), http.StatusNotFound)

	bad := client{t: t, r: r, token: "not-a-jwt"}
	expect(t, bad.do(http.MethodGet, "/api/bookings", nil), http.StatusUnauthorized)

	w := anon.do(http.MethodGet, "/health", nil)
	expect(t, w, http.StatusOK)
}

func evidenceRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("notes", "all rooms done"); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("captions[]", "kitchen"); err != nil {
		t.Fatal(err)
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="evidence[]"; filename="kitchen.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("not really a jpeg")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
