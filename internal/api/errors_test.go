package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/gorm"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
)

func TestWriteAgendaErrorConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	writeAgendaError(rec, &agenda.ConflictError{Date: "2024-01-15", Time: "14:00", SuggestedTime: "15:00"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, esperava 409", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body inválido: %v", err)
	}
	if body["suggested_time"] != "15:00" {
		t.Errorf("suggested_time = %v", body["suggested_time"])
	}
	if body["date"] != "2024-01-15" || body["time"] != "14:00" {
		t.Errorf("date/time = %v/%v", body["date"], body["time"])
	}
}

func TestWriteAgendaErrorInvalidArgument(t *testing.T) {
	rec := httptest.NewRecorder()
	writeAgendaError(rec, fmt.Errorf("wrap: %w", agenda.ErrInvalidArgument))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, esperava 400", rec.Code)
	}
}

func TestWriteAgendaErrorNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	writeAgendaError(rec, gorm.ErrRecordNotFound)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, esperava 404", rec.Code)
	}
}

func TestWriteAgendaErrorInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	writeAgendaError(rec, fmt.Errorf("banco fora"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, esperava 500", rec.Code)
	}
}
