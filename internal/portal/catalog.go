package portal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/notice"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/internal/viewmodel"
)

// Catalog serves the booking wizard: specializations, locations, doctors and free slots.
type Catalog struct {
	base
	doctors   DoctorStore
	locations LocationStore
	slots     SlotStore
}

func (c *Catalog) Specializations(ctx context.Context) []string {
	raw, err := c.doctors.Specializations(ctx)
	if err != nil {
		c.fail(ctx, "portal.Specializations", "error fetching specializations", "Could not load specializations.", err)
		return []string{}
	}
	return viewmodel.Specializations(raw)
}

func (c *Catalog) Locations(ctx context.Context, specialization, query string) []store.Location {
	rows, err := c.locations.Search(ctx, specialization, query)
	if err != nil {
		c.fail(ctx, "portal.Locations", "error fetching locations", "Could not load locations.", err)
		return []store.Location{}
	}
	return viewmodel.UniqueLocations(rows)
}

// Doctors lists doctors with slots at the location. No location means no doctors.
func (c *Catalog) Doctors(ctx context.Context, locationID uuid.UUID, specialization string) []viewmodel.DoctorCard {
	if locationID == uuid.Nil {
		return []viewmodel.DoctorCard{}
	}
	rows, err := c.doctors.AtLocation(ctx, locationID, specialization)
	if err != nil {
		c.fail(ctx, "portal.Doctors", "error fetching doctors", "Could not load doctors.", err)
		return []viewmodel.DoctorCard{}
	}
	return viewmodel.UniqueDoctors(rows)
}

// OpenSlots lists the doctor's free, not-yet-started slots on day.
func (c *Catalog) OpenSlots(ctx context.Context, doctorID uuid.UUID, day time.Time, locationID uuid.UUID) []store.Slot {
	if doctorID == uuid.Nil || day.IsZero() {
		return []store.Slot{}
	}
	from, to := c.dayRange(day)
	slots, err := c.slots.Open(ctx, doctorID, locationID, from, to, c.now())
	if err != nil {
		c.fail(ctx, "portal.OpenSlots", "error fetching doctor availability", "Could not load doctor's schedule.", err)
		return []store.Slot{}
	}
	if slots == nil {
		slots = []store.Slot{}
	}
	return slots
}

func (c *Catalog) AddLocation(ctx context.Context, in store.NewLocation) *store.Location {
	loc, err := c.locations.Insert(ctx, in)
	if err != nil {
		c.fail(ctx, "portal.AddLocation", "error inserting location", "Could not add new location. Please try again.", err)
		return nil
	}
	notice.Success(ctx, "Location added successfully.")
	return loc
}
