package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/fuyanik/user-management-case/internal/repository"
	"github.com/rs/zerolog"
)

// ErrUnsupportedFormat is returned for export formats other than csv, ndjson and json
var ErrUnsupportedFormat = errors.New("unsupported export format")

// exportService is the concrete implementation of ExportService
type exportService struct {
	users repository.UserRepository
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(users repository.UserRepository, log zerolog.Logger) *exportService {
	return &exportService{
		users: users,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamUsers streams users in the specified format. Password hashes are
// never written.
func (s *exportService) StreamUsers(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting users export")

	var (
		count int
		err   error
	)
	switch format {
	case "ndjson":
		count, err = s.streamNDJSON(ctx, w)
	case "json":
		count, err = s.streamJSON(ctx, w)
	case "csv":
		count, err = s.streamCSV(ctx, w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	s.log.Info().Int("count", count).Str("format", format).Msg("Users export completed")
	return err
}

// GetCount returns the number of stored users
func (s *exportService) GetCount(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=users.ndjson")

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	count := 0

	err := s.users.StreamAll(ctx, func(user *models.User) error {
		if err := enc.Encode(user); err != nil {
			return err
		}
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=users.json")

	if _, err := w.Write([]byte("[")); err != nil {
		return 0, err
	}
	count := 0

	err := s.users.StreamAll(ctx, func(user *models.User) error {
		if count > 0 {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++
		return nil
	})

	if _, werr := w.Write([]byte("]")); err == nil {
		err = werr
	}
	return count, err
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=users.csv")

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "firstName", "lastName", "email", "age", "role", "isActive", "createdAt", "updatedAt"}); err != nil {
		return 0, err
	}
	count := 0

	err := s.users.StreamAll(ctx, func(user *models.User) error {
		count++
		return writer.Write([]string{
			user.ID,
			user.FirstName,
			user.LastName,
			user.Email,
			strconv.Itoa(user.Age),
			string(user.Role),
			strconv.FormatBool(user.IsActive),
			user.CreatedAt.UTC().Format(time.RFC3339),
			user.UpdatedAt.UTC().Format(time.RFC3339),
		})
	})

	writer.Flush()
	if err == nil {
		err = writer.Error()
	}
	return count, err
}
