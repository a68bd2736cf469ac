package masterdata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/address-resolver/app/models"
)

func sampleRecords() []models.GeoRecord {
	return []models.GeoRecord{
		{Subdistrict: "คลองตัน", District: "คลองเตย", Province: "กรุงเทพมหานคร", PostalCode: "10110"},
		{Subdistrict: "พระบรมมหาราชวัง", District: "พระนคร", Province: "กรุงเทพมหานคร", PostalCode: "10200"},
		{Subdistrict: "หมากแข้ง", District: "เมืองอุดรธานี", Province: "อุดรธานี", PostalCode: "41000"},
		{Subdistrict: "บ้านเลื่อม", District: "เมืองอุดรธานี", Province: "อุดรธานี", PostalCode: "41000"},
		{Subdistrict: "ในเมือง", District: "เมืองขอนแก่น", Province: "ขอนแก่น", PostalCode: "40000"},
		{Subdistrict: "ในเมือง", District: "เมืองนครราชสีมา", Province: "นครราชสีมา", PostalCode: "30000"},
	}
}

func TestMaster_Lookups(t *testing.T) {
	m := NewMaster(sampleRecords(), "v1")

	assert.Equal(t, 6, m.Len())
	assert.Equal(t, "v1", m.Version())
	assert.Len(t, m.ByPostalCode("41000"), 2)
	assert.Len(t, m.BySubdistrict("ในเมือง"), 2)
	assert.Len(t, m.ByDistrictProvince("อุดรธานี", "เมืองอุดรธานี"), 2)
	assert.Empty(t, m.ByDistrictProvince("ขอนแก่น", "เมืองอุดรธานี"))
	assert.Equal(t, []string{"กรุงเทพมหานคร", "อุดรธานี", "ขอนแก่น", "นครราชสีมา"}, m.Provinces())
	assert.Equal(t, []string{"คลองเตย", "พระนคร"}, m.Districts("กรุงเทพมหานคร"))
	assert.Equal(t, []string{"หมากแข้ง", "บ้านเลื่อม"}, m.Subdistricts("อุดรธานี", "เมืองอุดรธานี"))
	assert.Empty(t, m.Subdistricts("อุดรธานี", "คลองเตย"))
}

func TestMaster_IsImmutable(t *testing.T) {
	src := sampleRecords()
	m := NewMaster(src, "v1")

	src[0].Subdistrict = "changed"
	assert.Equal(t, "คลองตัน", m.At(0).Subdistrict)

	got := m.ByPostalCode("10110")
	got[0].Subdistrict = "changed"
	assert.Equal(t, "คลองตัน", m.ByPostalCode("10110")[0].Subdistrict)

	all := m.Records()
	all[1].Province = "changed"
	assert.Equal(t, "กรุงเทพมหานคร", m.At(1).Province)
}

func TestMaster_NilAndEmpty(t *testing.T) {
	var m *Master
	assert.Zero(t, m.Len())
	assert.Nil(t, m.ByPostalCode("10110"))
	assert.Equal(t, "", m.Version())

	assert.Zero(t, EmptyMaster().Len())
}

func TestMaster_AdminUnits(t *testing.T) {
	m := NewMaster(sampleRecords(), "v1")

	provinces := m.AdminUnits(models.LevelProvince, "", "")
	assert.Len(t, provinces, 4)
	assert.Equal(t, "อุดรธานี", provinces[1].Name)
	assert.Equal(t, 2, provinces[1].Children)
	assert.Equal(t, []string{"41000"}, provinces[1].PostalCodes)

	districts := m.AdminUnits(models.LevelDistrict, "กรุงเทพมหานคร", "")
	assert.Len(t, districts, 2)
	assert.Equal(t, "กรุงเทพมหานคร", districts[0].Parent)

	subs := m.AdminUnits(models.LevelSubdistrict, "อุดรธานี", "เมืองอุดรธานี")
	assert.Len(t, subs, 2)

	assert.Nil(t, m.AdminUnits("country", "", ""))
}
