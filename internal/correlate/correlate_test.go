package correlate

import (
	"reflect"
	"testing"

	"buildlens/internal/diag"
)

func issue(id, file string, line int, cat diag.Category) diag.Issue {
	is := diag.Issue{ID: id, Severity: diag.SevError, Category: cat, Message: id}
	if file != "" {
		is.Loc = diag.Location{File: file, Line: line, Column: 1}
	}
	return is
}

func TestProximityGrouping(t *testing.T) {
	issues := []diag.Issue{
		issue("I1", "A.swift", 30, diag.CatOther),
		issue("I2", "A.swift", 10, diag.CatTypeIncompatibility),
		issue("I3", "A.swift", 14, diag.CatUnresolvedSymbol),
		issue("I4", "A.swift", 19, diag.CatProtocolConformance), // gap 5 to I3, still grouped
		issue("I5", "A.swift", 25, diag.CatInvalidDeclaration),  // gap 6, new group of I5 + I1
		issue("I6", "B.swift", 1, diag.CatMissingModuleImport),  // single, dropped
		issue("I7", "", 0, diag.CatLinkerFailure),
	}
	groups := Correlate(issues, Options{})

	var prox []Group
	for _, g := range groups {
		if g.Kind == KindProximity {
			prox = append(prox, g)
		}
	}
	if len(prox) != 2 {
		t.Fatalf("expected 2 proximity groups, got %+v", prox)
	}
	if prox[0].ID != "file:A.swift:10" || !reflect.DeepEqual(prox[0].Members, []string{"I2", "I3", "I4"}) {
		t.Fatalf("unexpected first group %+v", prox[0])
	}
	if prox[1].ID != "file:A.swift:25" || !reflect.DeepEqual(prox[1].Members, []string{"I5", "I1"}) {
		t.Fatalf("unexpected second group %+v", prox[1])
	}
}

func TestProximityWindowOption(t *testing.T) {
	issues := []diag.Issue{
		issue("I1", "A.swift", 1, diag.CatOther),
		issue("I2", "A.swift", 3, diag.CatOther),
	}
	for _, g := range Correlate(issues, Options{Window: 1}) {
		if g.Kind == KindProximity {
			t.Fatalf("window 1 must not group a gap of 2")
		}
	}
}

func TestCategoryGrouping(t *testing.T) {
	issues := []diag.Issue{
		issue("I1", "A.swift", 1, diag.CatConcurrencyAnnotationRequired),
		issue("I2", "B.swift", 100, diag.CatConcurrencyAnnotationRequired),
		issue("I3", "C.swift", 1, diag.CatConcurrencyAnnotationRequired),
		issue("I4", "", 0, diag.CatLinkerFailure),
		issue("I5", "", 0, diag.CatLinkerFailure),
		issue("I6", "D.swift", 1, diag.CatOther),
	}
	var cats []Group
	for _, g := range Correlate(issues, Options{}) {
		if g.Kind == KindCategory {
			cats = append(cats, g)
		}
	}
	if len(cats) != 2 {
		t.Fatalf("expected 2 category groups, got %+v", cats)
	}
	if cats[0].ID != "category:concurrency-annotation-required" || len(cats[0].Members) != 3 {
		t.Fatalf("unexpected group %+v", cats[0])
	}
	if cats[1].Category != diag.CatLinkerFailure || !reflect.DeepEqual(cats[1].Members, []string{"I4", "I5"}) {
		t.Fatalf("unexpected group %+v", cats[1])
	}
}

func TestCorrelateDoesNotTouchIssues(t *testing.T) {
	issues := []diag.Issue{
		issue("I2", "A.swift", 9, diag.CatOther),
		issue("I1", "A.swift", 8, diag.CatOther),
	}
	before := append([]diag.Issue(nil), issues...)
	_ = Correlate(issues, Options{})
	if !reflect.DeepEqual(before, issues) {
		t.Fatalf("Correlate reordered or modified its input")
	}
}

func TestMembership(t *testing.T) {
	groups := []Group{
		{ID: "file:A.swift:1", Members: []string{"I1", "I2"}},
		{ID: "category:other", Members: []string{"I2", "I3"}},
	}
	m := Membership(groups)
	if !reflect.DeepEqual(m["I2"], []string{"file:A.swift:1", "category:other"}) {
		t.Fatalf("unexpected membership %v", m)
	}
	if len(m["I4"]) != 0 {
		t.Fatalf("I4 belongs to no group")
	}
}
