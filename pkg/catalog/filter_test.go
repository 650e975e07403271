// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_AndGte(t *testing.T) {
	f := And(
		Eq("host", "node-1"),
		Eq("admin_status", "unlocked"),
		Gte("physical_free", int64(1<<30)),
	)

	and, ok := f["$AND"].([]Filter)
	assert.True(t, ok)
	assert.Len(t, and, 3)

	gte := and[2]["physical_free"].(Filter)
	assert.Equal(t, int64(1<<30), gte["$GTE"])
}

func TestFilter_Nor(t *testing.T) {
	f := Nor(Eq("status", "failed"), Eq("status", "mounted"))
	nor, ok := f["$NOR"].([]Filter)
	assert.True(t, ok)
	assert.Len(t, nor, 2)
}

func TestToMediumDescriptor_ExternalLock(t *testing.T) {
	rec := MediaRecord{
		ID:     "M1",
		Family: "tape",
		Lock:   &LockRecord{Owner: "other-host:1:2:3"},
	}
	m := rec.ToMediumDescriptor("our-host:4:5:6")
	assert.True(t, m.Lock.OwnedByOther())
	assert.Equal(t, "other-host:1:2:3", m.Lock.Owner)
}

func TestToMediumDescriptor_Unlocked(t *testing.T) {
	rec := MediaRecord{ID: "M2", Family: "tape"}
	m := rec.ToMediumDescriptor("our-host:4:5:6")
	assert.True(t, m.Lock.Unlocked())
}

func TestToMediumDescriptor_OwnedByUs(t *testing.T) {
	rec := MediaRecord{
		ID:     "M3",
		Family: "tape",
		Lock:   &LockRecord{Owner: "our-host:4:5:6"},
	}
	m := rec.ToMediumDescriptor("our-host:4:5:6")
	assert.True(t, m.Lock.OwnedByUs())
	assert.Empty(t, m.Lock.Owner)
}
