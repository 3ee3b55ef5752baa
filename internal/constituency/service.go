package constituency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/janmanch/janmanch-backend/pkg/db/models"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/geoip"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

type civicRepository interface {
	FindAssemblyByCity(ctx context.Context, city string) (*models.AssemblyConstituency, error)
	FindDistrictByID(ctx context.Context, id uuid.UUID) (*models.District, error)
	FindStateByID(ctx context.Context, id uuid.UUID) (*models.State, error)
	FindParliamentaryByID(ctx context.Context, id uuid.UUID) (*models.ParliamentaryConstituency, error)
}

type geoLookup interface {
	Lookup(ctx context.Context, ip string) (*geoip.Location, error)
}

type locationWriter interface {
	UpdateGeoLocation(ctx context.Context, id uuid.UUID, geoLocation, ip string) error
	UpdateCivicRefs(ctx context.Context, id uuid.UUID, stateID, districtID, assemblyID, parliamentaryID *uuid.UUID) error
}

// Service resolves IP addresses into the civic hierarchy.
type Service interface {
	ResolveByIP(ctx context.Context, userID *uuid.UUID, ip string) (*ResolutionDTO, error)
}

type service struct {
	civic           civicRepository
	geo             geoLookup
	users           locationWriter
	servicedCountry string
	logg            *logger.Logger
}

// NewService builds the constituency resolver. The users writer is optional;
// without it resolutions are returned but never persisted.
func NewService(civic civicRepository, geo geoLookup, users locationWriter, servicedCountry string, logg *logger.Logger) (Service, error) {
	if civic == nil {
		return nil, fmt.Errorf("civic repository required")
	}
	if geo == nil {
		return nil, fmt.Errorf("geo lookup required")
	}
	if strings.TrimSpace(servicedCountry) == "" {
		return nil, fmt.Errorf("serviced country required")
	}
	return &service{
		civic:           civic,
		geo:             geo,
		users:           users,
		servicedCountry: servicedCountry,
		logg:            logg,
	}, nil
}

// ResolveByIP geolocates the address and walks the civic chain from the city.
// Geolocation failures resolve to an empty result rather than an error so a
// flaky upstream never blocks connection handling. The raw geolocation is
// recorded for the user before the civic match is attempted.
func (s *service) ResolveByIP(ctx context.Context, userID *uuid.UUID, ip string) (*ResolutionDTO, error) {
	if strings.TrimSpace(ip) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ip address is required")
	}

	location, err := s.geo.Lookup(ctx, ip)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "geoip lookup failed: "+err.Error())
		}
		return &ResolutionDTO{}, nil
	}

	result := &ResolutionDTO{
		Country: location.Country,
		Region:  location.Region,
		City:    location.City,
	}

	if userID != nil && s.users != nil {
		if err := s.users.UpdateGeoLocation(ctx, *userID, location.String(), ip); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record geolocation")
		}
	}

	if !strings.EqualFold(location.Country, s.servicedCountry) {
		return result, nil
	}
	if strings.TrimSpace(location.City) == "" {
		return result, nil
	}

	ac, err := s.civic.FindAssemblyByCity(ctx, location.City)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match assembly constituency")
	}

	district, err := s.civic.FindDistrictByID(ctx, ac.DistrictID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load district")
	}
	state, err := s.civic.FindStateByID(ctx, district.StateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load state")
	}
	pc, err := s.civic.FindParliamentaryByID(ctx, ac.ParliamentaryConstituencyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parliamentary constituency")
	}

	result.AssemblyConstituency = &CivicRefDTO{ID: ac.ID, Name: ac.Name}
	result.District = &CivicRefDTO{ID: district.ID, Name: district.Name}
	result.State = &CivicRefDTO{ID: state.ID, Name: state.Name}
	result.ParliamentaryConstituency = &CivicRefDTO{ID: pc.ID, Name: pc.Name}

	if userID != nil && s.users != nil {
		if err := s.users.UpdateCivicRefs(ctx, *userID, &state.ID, &district.ID, &ac.ID, &pc.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record civic references")
		}
	}

	return result, nil
}
