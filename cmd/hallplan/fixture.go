package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// fixture is an offline snapshot of one exam session.
type fixture struct {
	ExamDate     string               `yaml:"exam_date"`
	Session      string               `yaml:"session"`
	SubjectCodes []string             `yaml:"subject_codes"`
	Halls        []models.Hall        `yaml:"halls"`
	Students     []models.Student     `yaml:"students"`
	Invigilators []models.Invigilator `yaml:"invigilators"`
}

func loadFixture(path string) (*fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i := range f.Halls {
		if f.Halls[i].ID == "" {
			f.Halls[i].ID = f.Halls[i].HallNo
		}
	}
	for i := range f.Students {
		if f.Students[i].ID == "" {
			f.Students[i].ID = f.Students[i].RegNo + ":" + f.Students[i].SubjectCode
		}
	}
	for i := range f.Invigilators {
		if f.Invigilators[i].ID == "" {
			f.Invigilators[i].ID = strings.ToLower(strings.ReplaceAll(f.Invigilators[i].Name, " ", "-"))
		}
	}
	return &f, nil
}

// The fixture doubles as the roster, hall and invigilator sources.

func (f *fixture) ListBySubjectCodes(_ context.Context, codes []string) ([]models.Student, error) {
	wanted := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		wanted[c] = struct{}{}
	}
	out := make([]models.Student, 0, len(f.Students))
	for _, s := range f.Students {
		if _, ok := wanted[s.SubjectCode]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type fixtureHalls []models.Hall

func (h fixtureHalls) List(context.Context) ([]models.Hall, error) {
	return append([]models.Hall(nil), h...), nil
}

type fixtureInvigilators []models.Invigilator

func (i fixtureInvigilators) List(context.Context) ([]models.Invigilator, error) {
	return append([]models.Invigilator(nil), i...), nil
}
