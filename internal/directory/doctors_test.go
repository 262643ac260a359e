package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchInMemoryByName(t *testing.T) {
	s := NewService(nil, "", nil)

	docs, err := s.Search(context.Background(), "mensah", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Dr. Kwame Mensah", docs[0].Name)
}

func TestSearchInMemoryBySpecialty(t *testing.T) {
	s := NewService(nil, "", nil)

	docs, err := s.Search(context.Background(), "cardio", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Cardiologist", docs[0].Specialty)
}

func TestSearchLocationFilter(t *testing.T) {
	s := NewService(nil, "", nil)

	docs, err := s.Search(context.Background(), "", "Kumasi")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		require.Equal(t, "Kumasi", d.Location)
	}
}

func TestSearchQueryAndLocationCombine(t *testing.T) {
	s := NewService(nil, "", nil)

	docs, err := s.Search(context.Background(), "dr", "Accra")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	docs, err = s.Search(context.Background(), "neuro", "Accra")
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestSearchEmptyQueryReturnsAll(t *testing.T) {
	s := NewService(nil, "", nil)

	docs, err := s.Search(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, docs, len(SampleDoctors()))
}

func TestAllReturnsCopy(t *testing.T) {
	s := NewService(nil, "", nil)

	docs := s.All()
	docs[0].Name = "mutated"
	require.Equal(t, "Dr. Kwame Mensah", s.All()[0].Name)
}
