package topoguia

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names a scalar form field.
type Field string

// Scalar fields, in catalogue order.
const (
	FieldRouteCode        Field = "route_code"
	FieldRouteName        Field = "route_name"
	FieldDistance         Field = "distance"
	FieldTime             Field = "time"
	FieldElevation        Field = "elevation"
	FieldElevationGain    Field = "elevation_gain"
	FieldElevationLoss    Field = "elevation_loss"
	FieldMaxAltitude      Field = "max_altitude"
	FieldMinAltitude      Field = "min_altitude"
	FieldRouteType        Field = "route_type"
	FieldDifficulty       Field = "difficulty"
	FieldDescription      Field = "description"
	FieldPointsOfInterest Field = "points_of_interest"
	FieldAccess           Field = "access"
	FieldAdvisory         Field = "advisory"
	FieldContact          Field = "contact"
	FieldURL              Field = "url"
)

// Slot names an image upload.
type Slot string

// Image slots. Additional photos are kept as an ordered list instead.
const (
	SlotBanner  Slot = "banner"
	SlotMap     Slot = "map"
	SlotProfile Slot = "profile"
	SlotMIDE    Slot = "mide"
	SlotLogo    Slot = "logo"
)

var fields = []struct {
	f        Field
	label    string
	required bool
}{
	{FieldRouteCode, "Código de Ruta", true},
	{FieldRouteName, "Nombre del Sendero", true},
	{FieldDistance, "Distancia", true},
	{FieldTime, "Tiempo", true},
	{FieldElevation, "Desnivel (+/-)", false},
	{FieldElevationGain, "Desnivel positivo", false},
	{FieldElevationLoss, "Desnivel negativo", false},
	{FieldMaxAltitude, "Altitud máxima", false},
	{FieldMinAltitude, "Altitud mínima", false},
	{FieldRouteType, "Tipo", false},
	{FieldDifficulty, "Dificultad", false},
	{FieldDescription, "Descripción", false},
	{FieldPointsOfInterest, "Puntos de interés", false},
	{FieldAccess, "Cómo llegar", false},
	{FieldAdvisory, "Recomendaciones", false},
	{FieldContact, "Contacto", false},
	{FieldURL, "Web para el QR", false},
}

var slots = []struct {
	s        Slot
	label    string
	required bool
}{
	{SlotBanner, "Foto Panorámica", false},
	{SlotMap, "Imagen Mapa", true},
	{SlotProfile, "Imagen Perfil Elevación", true},
	{SlotMIDE, "Imagen de Tabla MIDE", true},
	{SlotLogo, "Logotipo", false},
}

// PhotosLabel is the display label of the additional photos list.
const PhotosLabel = "Fotos adicionales"

// Fields returns all scalar fields in catalogue order.
func Fields() []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.f
	}
	return out
}

// Slots returns all image slots in catalogue order.
func Slots() []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		out[i] = s.s
	}
	return out
}

// Label returns the display label of the field.
func (f Field) Label() string {
	for _, d := range fields {
		if d.f == f {
			return d.label
		}
	}
	return string(f)
}

// Required reports whether generation needs the field.
func (f Field) Required() bool {
	for _, d := range fields {
		if d.f == f {
			return d.required
		}
	}
	return false
}

// Label returns the display label of the slot.
func (s Slot) Label() string {
	for _, d := range slots {
		if d.s == s {
			return d.label
		}
	}
	return string(s)
}

// Required reports whether generation needs the image.
func (s Slot) Required() bool {
	for _, d := range slots {
		if d.s == s {
			return d.required
		}
	}
	return false
}

// ParseField returns the field with the given key.
func ParseField(key string) (Field, error) {
	for _, d := range fields {
		if string(d.f) == key {
			return d.f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, key)
}

// ParseSlot returns the image slot with the given key.
func ParseSlot(key string) (Slot, error) {
	for _, d := range slots {
		if string(d.s) == key {
			return d.s, nil
		}
	}
	return "", fmt.Errorf("%w: image slot %q", ErrUnknownField, key)
}

// FieldSet holds the form values and uploaded images of one generation
// request. Setters return the FieldSet for chaining. Generation only reads
// it, and image buffers are never modified.
type FieldSet struct {
	values map[Field]string
	images map[Slot][]byte
	photos [][]byte
}

// NewFieldSet returns an empty FieldSet.
func NewFieldSet() *FieldSet {
	return &FieldSet{values: make(map[Field]string), images: make(map[Slot][]byte)}
}

// Set stores a scalar value.
func (fs *FieldSet) Set(f Field, v string) *FieldSet {
	if fs.values == nil {
		fs.values = make(map[Field]string)
	}
	fs.values[f] = v
	return fs
}

// SetNumber stores a number with one decimal, a decimal comma and a unit,
// e.g. "11,0 Km".
func (fs *FieldSet) SetNumber(f Field, v float64, unit string) *FieldSet {
	s := strings.Replace(strconv.FormatFloat(v, 'f', 1, 64), ".", ",", 1)
	if unit != "" {
		s += " " + unit
	}
	return fs.Set(f, s)
}

// Get returns the value of a field with surrounding space removed.
func (fs *FieldSet) Get(f Field) string {
	return strings.TrimSpace(fs.values[f])
}

// SetImage stores the raw bytes of an upload. Empty data removes the image.
func (fs *FieldSet) SetImage(s Slot, data []byte) *FieldSet {
	if fs.images == nil {
		fs.images = make(map[Slot][]byte)
	}
	if len(data) == 0 {
		delete(fs.images, s)
		return fs
	}
	fs.images[s] = data
	return fs
}

// Image returns the upload in slot s and whether it is present.
func (fs *FieldSet) Image(s Slot) ([]byte, bool) {
	data, ok := fs.images[s]
	return data, ok && len(data) > 0
}

// HasImage reports whether slot s holds an upload.
func (fs *FieldSet) HasImage(s Slot) bool {
	_, ok := fs.Image(s)
	return ok
}

// AddPhoto appends an additional photo. Empty data is ignored.
func (fs *FieldSet) AddPhoto(data []byte) *FieldSet {
	if len(data) > 0 {
		fs.photos = append(fs.photos, data)
	}
	return fs
}

// Photos returns the additional photos in order.
func (fs *FieldSet) Photos() [][]byte {
	return append([][]byte(nil), fs.photos...)
}

// Missing returns the labels of the required fields and images that are
// empty, in catalogue order: route code, route name, distance, time, map,
// profile, MIDE.
func (fs *FieldSet) Missing() []string {
	var missing []string
	for _, d := range fields {
		if d.required && fs.Get(d.f) == "" {
			missing = append(missing, d.label)
		}
	}
	for _, d := range slots {
		if d.required && !fs.HasImage(d.s) {
			missing = append(missing, d.label)
		}
	}
	return missing
}

// Validate returns a *ValidationError when required content is missing.
func Validate(fs *FieldSet) error {
	if fs == nil {
		fs = &FieldSet{}
	}
	if missing := fs.Missing(); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
