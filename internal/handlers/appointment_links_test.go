package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"eyeclinic-server/internal/models"
	"eyeclinic-server/internal/notify"
	"eyeclinic-server/internal/scheduler"
	"eyeclinic-server/internal/scheduling"
	"eyeclinic-server/internal/utils"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))

	sched := scheduler.New(db, notify.Noop{}, zerolog.Nop(), scheduling.DefaultSlotConfig(), "https://clinic.test")
	appointments := NewAppointmentHandler(sched)
	links := NewAppointmentLinkHandler(sched)

	router := gin.New()
	public := router.Group("/api/v1")
	{
		public.POST("/appointments/public", appointments.CreatePublicAppointment)
		public.GET("/appointment-links/public/:token", links.GetLinkInfo)
		public.GET("/appointment-links/public/:token/slots", links.GetLinkSlots)
		public.POST("/appointment-links/public/:token/schedule", links.ScheduleViaLink)
		public.POST("/appointment-links/generate", links.GenerateLink)
	}
	return router, db
}

func seedHandlerDoctor(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	doctor := models.User{
		Email:          "dr." + uuid.NewString() + "@clinic.test",
		FirstName:      "Elena",
		LastName:       "Ruiz",
		Role:           models.RoleDoctor,
		Specialization: "Oftalmología",
		IsActive:       true,
	}
	require.NoError(t, doctor.SetPassword("secret123"))
	require.NoError(t, db.Create(&doctor).Error)
	return doctor
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, utils.ResponseData) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope utils.ResponseData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestCreatePublicAppointmentEndpoint(t *testing.T) {
	router, db := newTestRouter(t)
	seedHandlerDoctor(t, db)

	w, envelope := doJSON(t, router, http.MethodPost, "/api/v1/appointments/public", gin.H{
		"firstName":       "María",
		"lastName":        "González",
		"email":           "maria@example.com",
		"appointmentDate": "2024-06-01",
		"startTime":       "10:00",
		"service":         "Examen de la Vista",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Cita solicitada exitosamente. Nos pondremos en contacto para confirmar.", envelope.Message)

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "María González", data["patientName"])
	assert.Equal(t, "2024-06-01", data["date"])
	assert.Equal(t, "10:00:00", data["time"])

	var appt models.Appointment
	require.NoError(t, db.First(&appt).Error)
	assert.Equal(t, models.TypeEyeExam, appt.AppointmentType)
}

func TestCreatePublicAppointmentEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/appointments/public", gin.H{
		"firstName": "María",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicLinkFlowEndpoints(t *testing.T) {
	router, db := newTestRouter(t)
	doctor := seedHandlerDoctor(t, db)

	// Staff generates a single-use link scoped to the doctor.
	w, envelope := doJSON(t, router, http.MethodPost, "/api/v1/appointment-links/generate", gin.H{
		"doctorId": doctor.ID,
		"maxUses":  1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	linkData, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	token, _ := linkData["token"].(string)
	require.Len(t, token, 64)

	// The patient inspects the link.
	w, envelope = doJSON(t, router, http.MethodGet, "/api/v1/appointment-links/public/"+token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Link válido", envelope.Message)

	// Slot listing requires both doctorId and date.
	w, _ = doJSON(t, router, http.MethodGet, "/api/v1/appointment-links/public/"+token+"/slots", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	slotsPath := fmt.Sprintf("/api/v1/appointment-links/public/%s/slots?doctorId=%s&date=2024-06-01", token, doctor.ID)
	w, envelope = doJSON(t, router, http.MethodGet, slotsPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	slotData := envelope.Data.(map[string]any)
	slots, ok := slotData["availableSlots"].([]any)
	require.True(t, ok)
	assert.Len(t, slots, 16)

	// The patient books the first slot.
	booking := gin.H{
		"doctorId":        doctor.ID,
		"appointmentDate": "2024-06-01",
		"startTime":       "09:00",
		"endTime":         "09:30",
		"appointmentType": "consultation",
		"patientInfo": gin.H{
			"firstName": "Carla",
			"lastName":  "Méndez",
			"email":     "carla.mendez@example.com",
		},
	}
	w, envelope = doJSON(t, router, http.MethodPost, "/api/v1/appointment-links/public/"+token+"/schedule", booking)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cita programada exitosamente", envelope.Message)
	apptData := envelope.Data.(map[string]any)["appointment"].(map[string]any)
	assert.Equal(t, "09:00:00", apptData["startTime"])
	assert.Equal(t, "Ruiz", apptData["doctor"].(map[string]any)["lastName"])

	// The single use is consumed.
	w, envelope = doJSON(t, router, http.MethodPost, "/api/v1/appointment-links/public/"+token+"/schedule", booking)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Este link ha alcanzado el límite de uso", envelope.Error)
}

func TestLinkEndpointsSpanishErrors(t *testing.T) {
	router, db := newTestRouter(t)
	doctor := seedHandlerDoctor(t, db)

	w, envelope := doJSON(t, router, http.MethodGet, "/api/v1/appointment-links/public/no-such-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Link no encontrado", envelope.Error)

	// Expired link.
	sched := scheduler.New(db, notify.Noop{}, zerolog.Nop(), scheduling.DefaultSlotConfig(), "https://clinic.test")
	link, err := sched.GenerateLink(context.Background(), doctor.ID, 1, 90, scheduler.RequestMeta{})
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.AppointmentLink{}).
		Where("token = ?", link.Token).
		Update("expires_at", past).Error)

	w, envelope = doJSON(t, router, http.MethodGet, "/api/v1/appointment-links/public/"+link.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Este link ha expirado", envelope.Error)
}

func TestScheduleViaLinkEndpointConflict(t *testing.T) {
	router, db := newTestRouter(t)
	doctor := seedHandlerDoctor(t, db)

	w, envelope := doJSON(t, router, http.MethodPost, "/api/v1/appointment-links/generate", gin.H{
		"doctorId": doctor.ID,
		"maxUses":  5,
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := envelope.Data.(map[string]any)["token"].(string)

	booking := func(start, end string) gin.H {
		return gin.H{
			"doctorId":        doctor.ID,
			"appointmentDate": "2024-06-01",
			"startTime":       start,
			"endTime":         end,
			"patientInfo": gin.H{
				"firstName": "Carla",
				"lastName":  "Méndez",
				"phone":     "555-0303",
			},
		}
	}

	w, _ = doJSON(t, router, http.MethodPost, "/api/v1/appointment-links/public/"+token+"/schedule", booking("09:00", "09:30"))
	require.Equal(t, http.StatusOK, w.Code)

	w, envelope = doJSON(t, router, http.MethodPost, "/api/v1/appointment-links/public/"+token+"/schedule", booking("09:15", "09:45"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Este horario ya está ocupado. Por favor seleccione otro.", envelope.Error)

	// A touching slot is fine.
	w, _ = doJSON(t, router, http.MethodPost, "/api/v1/appointment-links/public/"+token+"/schedule", booking("09:30", "10:00"))
	assert.Equal(t, http.StatusOK, w.Code)
}
