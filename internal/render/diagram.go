package render

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"genspec/internal/catalog"
)

// Diagram canvas size in pixels.
const (
	DiagramWidth  = 800
	DiagramHeight = 450
)

// Palette
var (
	colorPrimary = hexColor("#1e40af")
	colorBgLight = hexColor("#f1f5f9")
	colorBorder  = hexColor("#cbd5e1")
	colorText    = hexColor("#0f172a")
	colorSlate   = hexColor("#64748b")
	colorPurple  = hexColor("#a855f7")
	colorYellow  = hexColor("#eab308")
	colorBlue    = hexColor("#3b82f6")
	colorGreen   = hexColor("#22c55e")
	colorRed     = hexColor("#ef4444")
	colorGray    = hexColor("#e2e8f0")
)

func hexColor(s string) color.RGBA {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil {
		panic(fmt.Sprintf("bad color %q", s))
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// Box is one labelled component of the diagram.
type Box struct {
	Rect   image.Rectangle
	Label  string
	Value  string
	Border color.RGBA
}

// Segment is an axis-aligned wire run.
type Segment struct {
	From, To image.Point
}

// Conductor is one wire drawn between boxes.
type Conductor struct {
	Name     string
	Color    color.RGBA
	Segments []Segment
}

// LegendEntry places a color swatch and name.
type LegendEntry struct {
	Name  string
	Color color.RGBA
	At    image.Point
}

// Layout is the complete, resolution-independent description of a
// topology diagram. It holds no pixels; Rasterize draws it.
type Layout struct {
	Width, Height int
	Title         string
	Boxes         []Box
	Conductors    []Conductor
	Legend        []LegendEntry
}

// Component boxes
var (
	rectSource     = image.Rect(50, 80, 170, 180)
	rectBreaker    = image.Rect(230, 80, 350, 180)
	rectDisconnect = image.Rect(410, 80, 530, 180)
	rectEquipment  = image.Rect(410, 250, 530, 370)
	rectGroundRod  = image.Rect(230, 270, 350, 370)
)

const (
	legendY     = 410
	legendX     = 100
	legendStep  = 120
	groundWireY = 320
)

// Diagram lays out the wiring topology for phase and spec. Single phase gets
// Hot, Neutral and Ground; three phase gets Phase A, B, C and Ground.
func Diagram(phase catalog.PhaseType, rating catalog.PowerRating, spec catalog.Specification) Layout {
	breakers := make([]string, 0, len(spec.Services))
	for _, svc := range spec.Services {
		breakers = append(breakers, svc.Breaker)
	}

	l := Layout{
		Width:  DiagramWidth,
		Height: DiagramHeight,
		Title:  fmt.Sprintf("%s - %d kW", Upper(phase.Label()), rating.KW()),
		Boxes: []Box{
			{rectSource, "POWER SOURCE", spec.VoltageText(), colorSlate},
			{rectBreaker, "MAIN BREAKER", strings.Join(breakers, "/"), colorPurple},
			{rectDisconnect, "DISCONNECT", "Fused", colorYellow},
			{rectEquipment, "IMAGING EQUIPMENT", fmt.Sprintf("%d kW", rating.KW()), colorBlue},
			{rectGroundRod, "GROUND ROD", "<1 ohm", colorGreen},
		},
	}

	type wire struct {
		name string
		col  color.RGBA
	}
	hot := []wire{{"Hot", colorRed}, {"Neutral", colorGray}}
	if phase == catalog.PhaseThree {
		hot = []wire{{"Phase A", colorRed}, {"Phase B", colorYellow}, {"Phase C", colorBlue}}
	}

	n := len(hot)
	for i, w := range hot {
		y := rectSource.Min.Y + 15 + (i+1)*90/(n+1)
		x := rectDisconnect.Min.X + (i+1)*rectDisconnect.Dx()/(n+1)
		l.Conductors = append(l.Conductors, Conductor{
			Name:  w.name,
			Color: w.col,
			Segments: []Segment{
				{image.Pt(rectSource.Max.X, y), image.Pt(rectBreaker.Min.X, y)},
				{image.Pt(rectBreaker.Max.X, y), image.Pt(rectDisconnect.Min.X, y)},
				{image.Pt(x, rectDisconnect.Max.Y), image.Pt(x, rectEquipment.Min.Y)},
			},
		})
	}

	srcX := (rectSource.Min.X + rectSource.Max.X) / 2
	l.Conductors = append(l.Conductors, Conductor{
		Name:  "Ground",
		Color: colorGreen,
		Segments: []Segment{
			{image.Pt(srcX, rectSource.Max.Y), image.Pt(srcX, groundWireY)},
			{image.Pt(srcX, groundWireY), image.Pt(rectGroundRod.Min.X, groundWireY)},
			{image.Pt(rectEquipment.Min.X, groundWireY), image.Pt(rectGroundRod.Max.X, groundWireY)},
		},
	})

	for i, c := range l.Conductors {
		l.Legend = append(l.Legend, LegendEntry{
			Name:  c.Name,
			Color: c.Color,
			At:    image.Pt(legendX+i*legendStep, legendY),
		})
	}
	return l
}
