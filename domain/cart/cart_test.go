package cart

import "testing"

func TestAddItemRepeated(t *testing.T) {
	c := New()
	var count int
	for i := 0; i < 5; i++ {
		count = c.AddItem("p1")
	}
	if count != 5 {
		t.Errorf("ItemCount after 5 adds = %d, want 5", count)
	}
	if q := c.Quantity("p1"); q != 5 {
		t.Errorf("Quantity(p1) = %d, want 5", q)
	}
}

func TestAddItemCountsAcrossLines(t *testing.T) {
	c := New()
	c.AddItem("p1")
	c.AddItem("p2")
	if count := c.AddItem("p1"); count != 3 {
		t.Errorf("ItemCount = %d, want 3", count)
	}
}

func TestLinesPreserveInsertionOrder(t *testing.T) {
	c := New()
	c.AddItem("p2")
	c.AddItem("p1")
	c.AddItem("p3")
	c.AddItem("p1") // bumping quantity must not reorder

	lines := c.Lines()
	want := []string{"p2", "p1", "p3"}
	if len(lines) != len(want) {
		t.Fatalf("len(lines) = %d, want %d", len(lines), len(want))
	}
	for i, id := range want {
		if lines[i].ProductID != id {
			t.Errorf("lines[%d].ProductID = %q, want %q", i, lines[i].ProductID, id)
		}
	}
}

func TestSetQuantityClampsToOne(t *testing.T) {
	c := New()
	c.AddItem("p1")

	c.SetQuantity("p1", 0)
	if q := c.Quantity("p1"); q != 1 {
		t.Errorf("Quantity after SetQuantity(0) = %d, want 1", q)
	}

	c.SetQuantity("p1", -3)
	if q := c.Quantity("p1"); q != 1 {
		t.Errorf("Quantity after SetQuantity(-3) = %d, want 1", q)
	}

	c.SetQuantity("p1", 7)
	if q := c.Quantity("p1"); q != 7 {
		t.Errorf("Quantity after SetQuantity(7) = %d, want 7", q)
	}
}

func TestFromLinesClampsAndPreservesOrder(t *testing.T) {
	c := FromLines([]Line{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 0},
	})
	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0].ProductID != "a" || lines[0].Quantity != 2 {
		t.Errorf("lines[0] = %+v", lines[0])
	}
	if lines[1].ProductID != "b" || lines[1].Quantity != 1 {
		t.Errorf("lines[1] = %+v, want quantity clamped to 1", lines[1])
	}
}

func TestEmpty(t *testing.T) {
	c := New()
	if !c.Empty() {
		t.Error("new cart should be empty")
	}
	c.AddItem("p1")
	if c.Empty() {
		t.Error("cart with a line should not be empty")
	}
}
