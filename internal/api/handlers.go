package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/lifecycle"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/metrics"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/service"
)

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
		Role     string `json:"role"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.users.Register(r.Context(), service.RegisterInput{
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
		Phone:    body.Phone,
		Role:     body.Role,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: result.Token, User: result.User})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.users.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: result.Token, User: result.User})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Me(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Logout(r.Context(), actorFrom(r.Context())); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *HTTPServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories := s.categories
	if categories == nil {
		categories = []models.ServiceCategory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// handleSearchServices filters the category catalog by slug and free-text
// query over category and service names.
func (s *HTTPServer) handleSearchServices(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("category")
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))

	matched := []models.ServiceCategory{}
	for _, category := range s.categories {
		if slug != "" && category.Slug != slug {
			continue
		}
		if query != "" && !categoryMatches(category, query) {
			continue
		}
		matched = append(matched, category)
	}

	writeJSON(w, http.StatusOK, map[string]any{"categories": matched})
}

func categoryMatches(category models.ServiceCategory, query string) bool {
	if strings.Contains(strings.ToLower(category.Name), query) {
		return true
	}
	for _, svc := range category.Services {
		if strings.Contains(strings.ToLower(svc), query) {
			return true
		}
	}
	return false
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ServiceName     string          `json:"service_name"`
		ServiceCategory string          `json:"service_category"`
		BookingDate     string          `json:"booking_date"`
		TimeSlot        string          `json:"time_slot"`
		Location        string          `json:"location"`
		Pincode         string          `json:"pincode"`
		Description     string          `json:"description"`
		PricingType     string          `json:"pricing_type"`
		EstimatedPrice  decimal.Decimal `json:"estimated_price"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), actorFrom(r.Context()), service.CreateBookingInput{
		ServiceName:     body.ServiceName,
		ServiceCategory: body.ServiceCategory,
		BookingDate:     body.BookingDate,
		TimeSlot:        body.TimeSlot,
		Location:        body.Location,
		Pincode:         body.Pincode,
		Description:     body.Description,
		PricingType:     body.PricingType,
		EstimatedPrice:  body.EstimatedPrice,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings.ListBookings(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.bookings.GetBooking(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleTransition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status     string              `json:"status"`
		FinalPrice decimal.NullDecimal `json:"final_price"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	booking, err := s.bookings.Transition(r.Context(), actorFrom(r.Context()), r.PathValue("id"), body.Status, body.FinalPrice)
	if err != nil {
		metrics.IncTransition(body.Status, "rejected")
		writeDomainError(w, err)
		return
	}

	metrics.IncTransition(body.Status, "applied")
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	booking, err := s.bookings.MarkPaid(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Services        []string            `json:"services"`
		ExperienceYears int                 `json:"experience_years"`
		Bio             string              `json:"bio"`
		HourlyRate      decimal.NullDecimal `json:"hourly_rate"`
		FixedRate       decimal.NullDecimal `json:"fixed_rate"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	profile, err := s.vendors.CreateProfile(r.Context(), actorFrom(r.Context()), service.CreateProfileInput{
		Services:        body.Services,
		ExperienceYears: body.ExperienceYears,
		Bio:             body.Bio,
		HourlyRate:      body.HourlyRate,
		FixedRate:       body.FixedRate,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

func (s *HTTPServer) handleOwnProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.vendors.GetOwnProfile(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *HTTPServer) handleVendorDirectory(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.vendors.ListApproved(r.Context(), r.URL.Query().Get("service"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if profiles == nil {
		profiles = []*models.VendorProfile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"vendors": profiles})
}

func (s *HTTPServer) handleEarnings(w http.ResponseWriter, r *http.Request) {
	earnings, err := s.vendors.Earnings(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, earnings)
}

func (s *HTTPServer) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BookingID string `json:"booking_id"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	review, err := s.reviews.CreateReview(r.Context(), actorFrom(r.Context()), service.CreateReviewInput{
		BookingID: body.BookingID,
		Rating:    body.Rating,
		Comment:   body.Comment,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

func (s *HTTPServer) handleVendorReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.reviews.ListVendorReviews(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if reviews == nil {
		reviews = []*models.Review{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (s *HTTPServer) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.PlatformStats(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleAdminVendors(w http.ResponseWriter, r *http.Request) {
	approvedOnly, _ := strconv.ParseBool(r.URL.Query().Get("approved_only"))
	profiles, err := s.vendors.ListAll(r.Context(), actorFrom(r.Context()), approvedOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if profiles == nil {
		profiles = []*models.VendorProfile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"vendors": profiles})
}

func (s *HTTPServer) handleApproveVendor(w http.ResponseWriter, r *http.Request) {
	s.decideVendor(w, r, models.ApprovalApproved)
}

func (s *HTTPServer) handleRejectVendor(w http.ResponseWriter, r *http.Request) {
	s.decideVendor(w, r, models.ApprovalRejected)
}

func (s *HTTPServer) decideVendor(w http.ResponseWriter, r *http.Request, decision string) {
	profile, err := s.vendors.Decide(r.Context(), actorFrom(r.Context()), r.PathValue("id"), decision)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.IncVendorDecision(decision)
	writeJSON(w, http.StatusOK, profile)
}

func (s *HTTPServer) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r.Context()).IsAdmin() {
		writeDomainError(w, lifecycle.ErrUnauthorized)
		return
	}

	bookings, err := s.bookings.ListBookings(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// handleExportBookings writes the full bookings workbook to the export
// directory and returns its location.
func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r.Context()).IsAdmin() {
		writeDomainError(w, lifecycle.ErrUnauthorized)
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "report export is not configured")
		return
	}

	bookings, err := s.bookings.ListBookings(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	fileName := fmt.Sprintf("bookings_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.exportDir, fileName)
	if err := s.exporter.WriteBookingsReport(r.Context(), bookings, path); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"file_path": path, "bookings": len(bookings)})
}

func (s *HTTPServer) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListAll(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}
