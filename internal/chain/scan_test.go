package chain

import "testing"

func TestScanOrdersTopLevelThenInnerGroups(t *testing.T) {
	tx := &RawTransaction{
		TopLevelInstructions: []RawInstruction{
			{ProgramID: "progA"},
			{ProgramID: "progB"},
		},
		InnerInstructions: []InnerGroup{
			{ParentIndex: 1, Instructions: []RawInstruction{
				{ProgramID: "progC"},
				{ProgramID: "progD"},
			}},
		},
	}

	scanned := Scan(tx)
	if len(scanned) != 4 {
		t.Fatalf("expected 4 scanned instructions, got %d", len(scanned))
	}

	if scanned[0].IxIndex != 0 || scanned[0].InnerIxIndex != nil {
		t.Fatalf("first top-level instruction should be (0, nil), got (%d, %v)", scanned[0].IxIndex, scanned[0].InnerIxIndex)
	}
	if scanned[1].IxIndex != 1 || scanned[1].InnerIxIndex != nil {
		t.Fatalf("second top-level instruction should be (1, nil), got (%d, %v)", scanned[1].IxIndex, scanned[1].InnerIxIndex)
	}

	inner0 := scanned[2]
	if inner0.IxIndex != 1 || inner0.InnerIxIndex == nil || *inner0.InnerIxIndex != 0 {
		t.Fatalf("first inner instruction should be (1, 0), got (%d, %v)", inner0.IxIndex, inner0.InnerIxIndex)
	}
	inner1 := scanned[3]
	if inner1.IxIndex != 1 || inner1.InnerIxIndex == nil || *inner1.InnerIxIndex != 1 {
		t.Fatalf("second inner instruction should be (1, 1), got (%d, %v)", inner1.IxIndex, inner1.InnerIxIndex)
	}
}

// TestScanResetsInnerIxIndexPerParentGroup covers spec.md §3's pinned
// invariant: inner_ix_index counts position within its own parent's
// group, not across the whole transaction.
func TestScanResetsInnerIxIndexPerParentGroup(t *testing.T) {
	tx := &RawTransaction{
		InnerInstructions: []InnerGroup{
			{ParentIndex: 0, Instructions: []RawInstruction{{ProgramID: "progA"}, {ProgramID: "progB"}}},
			{ParentIndex: 2, Instructions: []RawInstruction{{ProgramID: "progC"}}},
		},
	}

	scanned := Scan(tx)
	if len(scanned) != 3 {
		t.Fatalf("expected 3 scanned instructions, got %d", len(scanned))
	}
	if *scanned[2].InnerIxIndex != 0 {
		t.Fatalf("second group's first instruction should reset to inner_ix_index 0, got %d", *scanned[2].InnerIxIndex)
	}
}
