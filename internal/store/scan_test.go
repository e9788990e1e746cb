package store

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func newTestScan(side Side) *Scan {
	return &Scan{
		ID:         uuid.New().String(),
		Side:       side,
		Detected:   true,
		Confidence: 0.92,
		GlareScore: 0.05,
		BlurScore:  78.5,
		MRZScore:   60,
		TCKN:       "12345678950",
		TCKNValid:  true,
	}
}

func TestScanCreateAndGet(t *testing.T) {
	s := newTestStore(t)

	sc := newTestScan(SideBack)
	if err := s.Scans().Create(sc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sc.CreatedAt.IsZero() {
		t.Error("Create should set CreatedAt")
	}

	got, err := s.Scans().GetByID(sc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ID != sc.ID {
		t.Errorf("ID = %q, want %q", got.ID, sc.ID)
	}
	if got.Side != SideBack {
		t.Errorf("Side = %q, want %q", got.Side, SideBack)
	}
	if !got.Detected {
		t.Error("Detected should round-trip as true")
	}
	if got.Confidence != sc.Confidence {
		t.Errorf("Confidence = %f, want %f", got.Confidence, sc.Confidence)
	}
	if got.MRZScore != 60 {
		t.Errorf("MRZScore = %d, want 60", got.MRZScore)
	}
	if got.TCKN != sc.TCKN || !got.TCKNValid {
		t.Errorf("TCKN = %q valid=%v, want %q valid=true", got.TCKN, got.TCKNValid, sc.TCKN)
	}
}

func TestScanGetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Scans().GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID on missing id: err = %v, want ErrNotFound", err)
	}
}

func TestScanList(t *testing.T) {
	s := newTestStore(t)

	scans, err := s.Scans().List()
	if err != nil {
		t.Fatalf("List on empty store: %v", err)
	}
	if len(scans) != 0 {
		t.Errorf("empty store listed %d scans", len(scans))
	}

	first := newTestScan(SideFront)
	second := newTestScan(SideBack)
	if err := s.Scans().Create(first); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	if err := s.Scans().Create(second); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	scans, err = s.Scans().List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(scans) != 2 {
		t.Fatalf("listed %d scans, want 2", len(scans))
	}
}

func TestScanDelete(t *testing.T) {
	s := newTestStore(t)

	sc := newTestScan(SideFront)
	if err := s.Scans().Create(sc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Scans().Delete(sc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := s.Scans().GetByID(sc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete: err = %v, want ErrNotFound", err)
	}

	if err := s.Scans().Delete(sc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: err = %v, want ErrNotFound", err)
	}
}

func TestScanFields(t *testing.T) {
	s := newTestStore(t)

	sc := newTestScan(SideFront)
	if err := s.Scans().Create(sc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Scans().AddField(sc.ID, "name", "MEHMET"); err != nil {
		t.Fatalf("AddField: %v", err)
	}
	if err := s.Scans().AddField(sc.ID, "surname", "YILMAZ"); err != nil {
		t.Fatalf("AddField: %v", err)
	}

	fields, err := s.Scans().Fields(sc.ID)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(fields))
	}
	if fields["name"] != "MEHMET" || fields["surname"] != "YILMAZ" {
		t.Errorf("fields = %v", fields)
	}
}

func TestScanFieldsCascadeDelete(t *testing.T) {
	s := newTestStore(t)

	sc := newTestScan(SideFront)
	if err := s.Scans().Create(sc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Scans().AddField(sc.ID, "tckn", "12345678950"); err != nil {
		t.Fatalf("AddField: %v", err)
	}

	if err := s.Scans().Delete(sc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	fields, err := s.Scans().Fields(sc.ID)
	if err != nil {
		t.Fatalf("Fields after delete: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("fields survived cascade delete: %v", fields)
	}
}

func TestAddFieldUnknownScan(t *testing.T) {
	s := newTestStore(t)

	if err := s.Scans().AddField("missing", "name", "X"); err == nil {
		t.Error("AddField with unknown scan id should fail the foreign key")
	}
}
