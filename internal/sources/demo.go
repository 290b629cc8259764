package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DemoSource produces synthetic Spanish entries spread over the last few
// hours. It exists so dashboards and aggregation can be exercised locally
// without configuring real feeds.
type DemoSource struct {
	now func() time.Time
}

// NewDemoSource creates a demo source using the wall clock.
func NewDemoSource() *DemoSource {
	return &DemoSource{now: time.Now}
}

func (d *DemoSource) Name() string {
	return "demo"
}

var demoTemplates = []struct {
	title    string
	summary  string
	ageHours int
}{
	{"Se inaugura el nuevo puente", "Gran avance para la vialidad de la zona norte", 1},
	{"Vecinos presentan queja por fuga de agua", "La falla lleva tres dias sin atenderse", 1},
	{"Abre la ventanilla unica de tramites", "El nuevo modulo agiliza licencias y permisos", 2},
	{"Protesta por el cobro del predial", "Contribuyentes denuncian un impuesto excesivo", 3},
	{"Entregan patrullas nuevas", "Refuerzo a la seguridad en colonias del sur", 4},
	{"Reportan baches en avenida principal", "El pavimento sigue sin reparacion", 5},
	{"Jornada de vacunas en la clinica municipal", "Atencion de salud sin cita previa", 6},
	{"Semaforos fuera de servicio en el centro", "El trafico se complica en hora pico", 7},
}

// Fetch returns up to limit synthetic entries with uuid-based URLs so each
// seeding run inserts fresh rows.
func (d *DemoSource) Fetch(_ context.Context, limit int) ([]Entry, error) {
	now := d.now().UTC()

	var entries []Entry
	for _, tpl := range demoTemplates {
		if len(entries) >= limit {
			break
		}
		published := now.Add(-time.Duration(tpl.ageHours) * time.Hour)
		entries = append(entries, Entry{
			Title:     tpl.title,
			Summary:   tpl.summary,
			URL:       fmt.Sprintf("https://demo.reputrack.local/%s", uuid.NewString()),
			Published: &published,
		})
	}

	return entries, nil
}
