package robot

import (
	"encoding/xml"
	"math"
	"testing"
)

type urdfDoc struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Joints  []urdfJoint `xml:"joint"`
	Links   []urdfLink  `xml:"link"`
}

type urdfJoint struct {
	Name  string     `xml:"name,attr"`
	Type  string     `xml:"type,attr"`
	Limit *urdfLimit `xml:"limit"`
}

type urdfLimit struct {
	Lower    float64 `xml:"lower,attr"`
	Upper    float64 `xml:"upper,attr"`
	Velocity float64 `xml:"velocity,attr"`
}

type urdfLink struct {
	Name string `xml:"name,attr"`
}

func TestGenerateURDFParses(t *testing.T) {
	d := DefaultDescription()
	out := GenerateURDF(d)

	var doc urdfDoc
	if err := xml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("generated URDF is not valid XML: %v", err)
	}
	if doc.Name != d.Name {
		t.Errorf("robot name: got %q, want %q", doc.Name, d.Name)
	}
}

func TestGenerateURDFJoints(t *testing.T) {
	d := DefaultDescription()
	out := GenerateURDF(d)

	var doc urdfDoc
	if err := xml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}

	revolute := make(map[string]urdfJoint)
	for _, j := range doc.Joints {
		if j.Type == "revolute" {
			revolute[j.Name] = j
		}
	}

	if len(revolute) != 9 {
		t.Fatalf("expected 9 revolute joints, got %d", len(revolute))
	}

	for _, name := range d.Names() {
		uj, ok := revolute[name]
		if !ok {
			t.Errorf("joint %q missing from URDF", name)
			continue
		}
		if uj.Limit == nil {
			t.Errorf("joint %q has no limit element", name)
			continue
		}
		dj, _ := d.Joint(name)
		wantLower := dj.Min * math.Pi / 180
		wantUpper := dj.Max * math.Pi / 180
		if math.Abs(uj.Limit.Lower-wantLower) > 1e-4 {
			t.Errorf("joint %q lower limit: got %f, want %f", name, uj.Limit.Lower, wantLower)
		}
		if math.Abs(uj.Limit.Upper-wantUpper) > 1e-4 {
			t.Errorf("joint %q upper limit: got %f, want %f", name, uj.Limit.Upper, wantUpper)
		}
	}
}
