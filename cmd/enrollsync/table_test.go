package main

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStatsRowsSkipsZeroCounters(t *testing.T) {
	got := statsRows(map[string]int{"students_created": 2, "leads_created": 0, "documents_created": 5})
	want := [][]string{{"documents_created", "5"}, {"students_created", "2"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("statsRows mismatch (-want +got):\n%s", diff)
	}

	allZero := statsRows(map[string]int{"b": 0, "a": 0})
	if diff := cmp.Diff([][]string{{"a", "0"}, {"b", "0"}}, allZero); diff != "" {
		t.Fatalf("statsRows all-zero mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Run", "Kind", "Status"}, [][]string{{"r1", "ingestion"}}, []columnAlignment{alignLeft})
	// Headers are upper-cased by the table style.
	for _, want := range []string{"RUN", "KIND", "STATUS", "r1", "ingestion"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestTableViewRendersFooter(t *testing.T) {
	out := tableView{
		headers: []string{"Table", "Rows"},
		aligns:  []columnAlignment{alignLeft, alignRight},
		rows:    [][]string{{"students", "2"}, {"documents", "3"}},
		footer:  []string{"total", "5"},
	}.render()
	if !strings.Contains(out, "TOTAL") || !strings.Contains(out, "documents") {
		t.Fatalf("expected footer and rows in table:\n%s", out)
	}
}
