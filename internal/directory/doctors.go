// Package directory serves the doctor directory shown on the dashboard:
// name/specialty search with a location filter. When Elasticsearch is
// configured the search runs there; otherwise it filters the built-in list
// in memory.
package directory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"
)

// Doctor is a directory entry. Appointments themselves are not persisted
// here; the directory only backs search and display.
type Doctor struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Specialty  string  `json:"specialty"`
	Location   string  `json:"location"`
	Rating     float64 `json:"rating"`
	Experience string  `json:"experience"`
	Image      string  `json:"image"`
}

// SampleDoctors is the seed data set shipped with the portal.
func SampleDoctors() []Doctor {
	return []Doctor{
		{ID: "doc_1", Name: "Dr. Kwame Mensah", Specialty: "Cardiologist", Location: "Accra", Rating: 4.8, Experience: "15 years", Image: "public/placeholder-user.jpg"},
		{ID: "doc_2", Name: "Dr. Ama Asante", Specialty: "Dermatologist", Location: "Kumasi", Rating: 4.6, Experience: "12 years", Image: "public/placeholder-user.jpg"},
		{ID: "doc_3", Name: "Dr. Kojo Owusu", Specialty: "General Practitioner", Location: "Takoradi", Rating: 4.7, Experience: "18 years", Image: "public/placeholder-user.jpg"},
		{ID: "doc_4", Name: "Dr. Akosua Boateng", Specialty: "Pediatrician", Location: "Accra", Rating: 4.9, Experience: "20 years", Image: "public/placeholder-user.jpg"},
		{ID: "doc_5", Name: "Dr. Yaw Boadu", Specialty: "Neurologist", Location: "Kumasi", Rating: 4.5, Experience: "14 years", Image: "public/placeholder-user.jpg"},
	}
}

// Service answers doctor directory queries.
type Service struct {
	ES      *elasticsearch.Client
	ESIndex string
	Logger  *logrus.Logger
	doctors []Doctor
}

func NewService(es *elasticsearch.Client, esIndex string, logger *logrus.Logger) *Service {
	return &Service{ES: es, ESIndex: esIndex, Logger: logger, doctors: SampleDoctors()}
}

// All returns the full directory.
func (s *Service) All() []Doctor {
	out := make([]Doctor, len(s.doctors))
	copy(out, s.doctors)
	return out
}

// Search filters by free-text query (name/specialty) and exact location.
// Empty arguments match everything.
func (s *Service) Search(ctx context.Context, query, location string) ([]Doctor, error) {
	if s.ES != nil && s.ESIndex != "" {
		res, err := s.searchES(ctx, query, location)
		if err == nil {
			return res, nil
		}
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("es doctor search failed, falling back to in-memory filter")
		}
	}
	return s.searchMemory(query, location), nil
}

func (s *Service) searchMemory(query, location string) []Doctor {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		if location != "" && !strings.EqualFold(d.Location, location) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(d.Name), query) &&
			!strings.Contains(strings.ToLower(d.Specialty), query) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *Service) searchES(ctx context.Context, query, location string) ([]Doctor, error) {
	must := []map[string]any{}
	if strings.TrimSpace(query) != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"name^2", "specialty"},
			},
		})
	}
	filter := []map[string]any{}
	if location != "" {
		filter = append(filter, map[string]any{
			"term": map[string]any{"location.keyword": location},
		})
	}
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"must": must, "filter": filter},
		},
		"size": 25,
	}
	b, _ := json.Marshal(body)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source Doctor `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]Doctor, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

// IndexAll pushes the directory into Elasticsearch. Used by the seeder.
func (s *Service) IndexAll(ctx context.Context) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	for _, d := range s.doctors {
		b, _ := json.Marshal(d)
		req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: d.ID, Body: strings.NewReader(string(b))}
		res, err := req.Do(ctx, s.ES)
		if err != nil {
			return err
		}
		_ = res.Body.Close()
	}
	return nil
}
