// Package qrgen is the built-in QR code generator. It encodes the entered text, shows a
// text preview of the symbol and writes it out as a PNG on request.
package qrgen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/skip2/go-qrcode"

	"github.com/ayusman/toolsuite/internal/ui"
)

// Name is the builtin registry key.
const Name = "qrcode"

// Title is shown as the tool's heading.
const Title = "QR Code Generator"

// Input names.
const (
	InputData     = "data"
	InputVersion  = "version"
	InputLevel    = "level"
	InputBoxSize  = "box_size"
	InputBorder   = "border"
	InputFileName = "file_name"
)

// Defaults.
const (
	DefaultVersion  = "auto"
	DefaultLevel    = "L"
	DefaultBoxSize  = "10"
	DefaultBorder   = "4"
	DefaultFileName = "qrcode"
)

// Status messages.
const (
	msgDataRequired = "QR Data is required!"
	msgNotIntegers  = "Box size and border size must be integers!"
	msgBadSizes     = "Box size must be at least 1 and border size cannot be negative."
	msgNothingSaved = "Generate a QR code first."
)

var levels = map[string]qrcode.RecoveryLevel{
	"L": qrcode.Low,
	"M": qrcode.Medium,
	"Q": qrcode.High,
	"H": qrcode.Highest,
}

// Module is one generator instance. A generated image stays pending until it is saved.
type Module struct {
	dir string
	log hclog.Logger

	data     *ui.Widget
	version  *ui.Widget
	level    *ui.Widget
	boxSize  *ui.Widget
	border   *ui.Widget
	fileName *ui.Widget
	status   *ui.Widget
	preview  *ui.Widget

	pending []byte
}

// New creates a generator that saves relative file names under dir.
func New(dir string) *Module {
	return &Module{dir: dir, log: hclog.NewNullLogger()}
}

// Main builds the generator interface.
func (m *Module) Main(_ *ui.Widget, log hclog.Logger) (*ui.Widget, error) {
	if log != nil {
		m.log = log
	}

	root := ui.NewContainer(Title)
	m.data = ui.NewInput(InputData, "")
	m.version = ui.NewInput(InputVersion, DefaultVersion)
	m.level = ui.NewInput(InputLevel, DefaultLevel)
	m.boxSize = ui.NewInput(InputBoxSize, DefaultBoxSize)
	m.border = ui.NewInput(InputBorder, DefaultBorder)
	m.fileName = ui.NewInput(InputFileName, DefaultFileName)
	m.status = ui.NewLabel("")
	m.preview = ui.NewText("")

	for _, w := range []*ui.Widget{
		ui.NewLabel("QR data"), m.data,
		ui.NewLabel("Version (1-40 or auto)"), m.version,
		ui.NewLabel("Error correction (L, M, Q, H)"), m.level,
		ui.NewLabel("Box size"), m.boxSize,
		ui.NewLabel("Border size"), m.border,
		ui.NewButton("Generate", m.generate),
		ui.NewLabel("File name"), m.fileName,
		ui.NewButton("Save", m.save),
		m.status,
		m.preview,
	} {
		if err := root.Add(w); err != nil {
			return nil, err
		}
	}

	return root, nil
}

// Close drops any unsaved image.
func (m *Module) Close() error {
	m.pending = nil
	return nil
}

// Pending reports whether a generated image is waiting to be saved.
func (m *Module) Pending() bool { return m.pending != nil }

// Options control how a code is encoded and rendered.
type Options struct {
	// Version forces a symbol version from 1 to 40. Zero picks the smallest that fits,
	// which is also the fallback when the forced version is too small for the data.
	Version int
	Level   qrcode.RecoveryLevel
	BoxSize int
	Border  int
}

// Encode builds the QR symbol for data.
func Encode(data string, opts Options) (*qrcode.QRCode, error) {
	if opts.Version > 0 {
		code, err := qrcode.NewWithForcedVersion(data, opts.Version, opts.Level)
		if err == nil {
			return code, nil
		}
	}
	return qrcode.New(data, opts.Level)
}

// Render draws code with each module boxSize pixels wide, surrounded by border quiet
// modules.
func Render(code *qrcode.QRCode, boxSize, border int) image.Image {
	code.DisableBorder = true
	bits := code.Bitmap()
	side := (len(bits) + 2*border) * boxSize

	img := image.NewGray(image.Rect(0, 0, side, side))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	for y, row := range bits {
		for x, on := range row {
			if !on {
				continue
			}
			x0, y0 := (x+border)*boxSize, (y+border)*boxSize
			for dy := 0; dy < boxSize; dy++ {
				for dx := 0; dx < boxSize; dx++ {
					img.SetGray(x0+dx, y0+dy, color.Gray{})
				}
			}
		}
	}
	return img
}

func (m *Module) options() (Options, string) {
	opts := Options{Level: qrcode.Low}

	if v := strings.TrimSpace(m.version.Value()); v != "" && !strings.EqualFold(v, DefaultVersion) {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 40 {
			return opts, "Version must be auto or a number from 1 to 40."
		}
		opts.Version = n
	}
	if l, ok := levels[strings.ToUpper(strings.TrimSpace(m.level.Value()))]; ok {
		opts.Level = l
	}

	box, errBox := strconv.Atoi(strings.TrimSpace(m.boxSize.Value()))
	border, errBorder := strconv.Atoi(strings.TrimSpace(m.border.Value()))
	if errBox != nil || errBorder != nil {
		return opts, msgNotIntegers
	}
	if box < 1 || border < 0 {
		return opts, msgBadSizes
	}
	opts.BoxSize, opts.Border = box, border
	return opts, ""
}

func (m *Module) generate() {
	data := m.data.Value()
	if data == "" {
		m.status.SetText(msgDataRequired)
		return
	}
	opts, problem := m.options()
	if problem != "" {
		m.status.SetText(problem)
		return
	}

	code, err := Encode(data, opts)
	if err != nil {
		m.log.Warn("encode failed", "error", err)
		m.status.SetText(fmt.Sprintf("Failed to generate QR Code: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(code, opts.BoxSize, opts.Border)); err != nil {
		m.status.SetText(fmt.Sprintf("Failed to generate QR Code: %v", err))
		return
	}

	m.pending = buf.Bytes()
	m.preview.SetText(code.ToSmallString(false))
	m.status.SetText(fmt.Sprintf("Generated version %d code.", code.VersionNumber))
	m.log.Debug("generated code", "version", code.VersionNumber, "bytes", len(m.pending))
}

// target resolves the output path; relative names land in the plugin folder.
func (m *Module) target() string {
	name := strings.TrimSpace(m.fileName.Value())
	if name == "" {
		name = DefaultFileName
	}
	name += ".png"
	if filepath.IsAbs(name) || m.dir == "" {
		return name
	}
	return filepath.Join(m.dir, name)
}

func (m *Module) save() {
	if m.pending == nil {
		m.status.SetText(msgNothingSaved)
		return
	}

	path := m.target()
	if err := os.WriteFile(path, m.pending, 0644); err != nil {
		m.log.Error("save failed", "path", path, "error", err)
		m.status.SetText(fmt.Sprintf("Failed to save QR Code: %v", err))
		return
	}

	m.pending = nil
	m.log.Info("saved code", "path", path)
	m.status.SetText("QR Code saved at: " + path)
}
