package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"habitMasteryAPI/internal/habit"
	"habitMasteryAPI/middleware"
	"habitMasteryAPI/services"
)

type HabitHandler struct {
	habitService *services.HabitService
}

func NewHabitHandler(habitService *services.HabitService) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
	}
}

func habitIDFromRequest(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["habitId"])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req habit.CreateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.habitService.CreateHabit(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HabitHandler) GetHabits(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habits, err := h.habitService.GetHabits(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, habits)
}

func (h *HabitHandler) GetHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid habit id")
		return
	}

	found, err := h.habitService.GetHabit(ctx, clerkID, habitID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid habit id")
		return
	}

	if err := h.habitService.DeleteHabit(ctx, clerkID, habitID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Habit deleted successfully"})
}

// ToggleTracking adds or removes the tracking entry for a date. The body is
// optional; without one the entry toggles for today.
func (h *HabitHandler) ToggleTracking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid habit id")
		return
	}

	date := time.Now()
	var req habit.ToggleTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	result, err := h.habitService.ToggleTracking(ctx, clerkID, habitID, date)
	if err != nil {
		if errors.Is(err, services.ErrTrackingExists) {
			middleware.CountTrackingToggle("conflict")
		} else {
			middleware.CountTrackingToggle("error")
		}
		respondWithServiceError(w, err)
		return
	}

	if result.Marked {
		middleware.CountTrackingToggle("marked")
	} else {
		middleware.CountTrackingToggle("unmarked")
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *HabitHandler) CompleteHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid habit id")
		return
	}

	completed, err := h.habitService.CompleteHabit(ctx, clerkID, habitID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, completed)
}

func (h *HabitHandler) GetTrackings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid habit id")
		return
	}

	trackings, err := h.habitService.GetTrackings(ctx, clerkID, habitID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, trackings)
}

// GetCalendar returns the month grid for a habit. Defaults to the current
// month when year/month query params are absent.
func (h *HabitHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid habit id")
		return
	}

	now := time.Now()
	year := now.Year()
	month := int(now.Month())

	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1970 || parsed > 9999 {
			respondWithError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		year = parsed
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			respondWithError(w, http.StatusBadRequest, "Invalid month")
			return
		}
		month = parsed
	}

	cal, err := h.habitService.GetCalendar(ctx, clerkID, habitID, year, month)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, cal)
}
