// Package store provides the registry sources workers are loaded from.
package store

import (
	"context"

	"github.com/spigell/hire-labor/internal/registry"
)

func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

// DemoRecords returns ten workers around Solapur, Maharashtra.
func DemoRecords() []registry.RawRecord {
	return []registry.RawRecord{
		{ID: "1", Name: "Rajesh Kumar", Skill: "Plumber", Phone: "+919876543210", Available: boolPtr(true), Lat: floatPtr(17.6599), Lng: floatPtr(75.9064)},
		{ID: "2", Name: "Suresh Patil", Skill: "Electrician", Phone: "+919823456789", Available: boolPtr(true), Lat: floatPtr(17.6650), Lng: floatPtr(75.9100)},
		{ID: "3", Name: "Anil Sharma", Skill: "Carpenter", Phone: "+919812345678", Available: boolPtr(false), Lat: floatPtr(17.6700), Lng: floatPtr(75.9200)},
		{ID: "4", Name: "Vikram Singh", Skill: "Painter", Phone: "+919834567890", Available: boolPtr(true), Lat: floatPtr(17.6550), Lng: floatPtr(75.9000)},
		{ID: "5", Name: "Mahesh Jadhav", Skill: "Mason", Phone: "+919845678901", Available: boolPtr(true), Lat: floatPtr(17.6620), Lng: floatPtr(75.8950)},
		{ID: "6", Name: "Santosh More", Skill: "Plumber", Phone: "+919856789012", Available: boolPtr(false), Lat: floatPtr(17.6580), Lng: floatPtr(75.9150)},
		{ID: "7", Name: "Ganesh Kulkarni", Skill: "Electrician", Phone: "+919867890123", Available: boolPtr(true), Lat: floatPtr(17.6680), Lng: floatPtr(75.9050)},
		{ID: "8", Name: "Ravi Deshmukh", Skill: "AC Repair", Phone: "+919878901234", Available: boolPtr(true), Lat: floatPtr(17.6530), Lng: floatPtr(75.9120)},
		{ID: "9", Name: "Prakash Gaikwad", Skill: "Welder", Phone: "+919889012345", Available: boolPtr(false), Lat: floatPtr(17.6640), Lng: floatPtr(75.8980)},
		{ID: "10", Name: "Deepak Bhosale", Skill: "Carpenter", Phone: "+919890123456", Available: boolPtr(true), Lat: floatPtr(17.6720), Lng: floatPtr(75.9080)},
	}
}

// DemoStore serves DemoRecords.
type DemoStore struct{}

func (DemoStore) FetchAll(context.Context) ([]registry.RawRecord, error) {
	return DemoRecords(), nil
}
