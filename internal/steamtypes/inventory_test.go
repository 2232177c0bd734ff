package steamtypes

import "testing"

func TestBuildInventoryState_GroupsBySetKeyAndCountsDuplicates(t *testing.T) {
	assets := []Asset{
		{ClassID: 1, RealAppID: 730, Type: AssetTypeTradingCard, Amount: 2, Tradable: true},
		{ClassID: 1, RealAppID: 730, Type: AssetTypeTradingCard, Amount: 1, Tradable: true},
		{ClassID: 2, RealAppID: 730, Type: AssetTypeTradingCard, Amount: 1, Tradable: true},
		{ClassID: 3, RealAppID: 730, Type: AssetTypeEmoticon, Amount: 1, Tradable: true},
		{ClassID: 4, RealAppID: 440, Type: AssetTypeTradingCard, Amount: 5, Tradable: false}, // not tradable
		{ClassID: 5, RealAppID: 440, Type: AssetType(99), Amount: 5, Tradable: true},         // not matchable
	}

	state := BuildInventoryState(assets)

	cardKey := SetKey{RealAppID: 730, Type: AssetTypeTradingCard}
	if got := state[cardKey][1]; got != 3 {
		t.Fatalf("class 1 count = %d, want 3", got)
	}
	if got := state[cardKey][2]; got != 1 {
		t.Fatalf("class 2 count = %d, want 1", got)
	}
	emoticonKey := SetKey{RealAppID: 730, Type: AssetTypeEmoticon}
	if got := state[emoticonKey][3]; got != 1 {
		t.Fatalf("class 3 count = %d, want 1", got)
	}
	if _, ok := state[SetKey{RealAppID: 440, Type: AssetTypeTradingCard}]; ok {
		t.Fatal("non-tradable asset must not appear in state")
	}
	if len(state) != 2 {
		t.Fatalf("want 2 set keys, got %d", len(state))
	}
}

func TestHasSurplus(t *testing.T) {
	noDupes := InventoryState{
		SetKey{RealAppID: 730, Type: AssetTypeTradingCard}: {1: 1, 2: 1},
	}
	if noDupes.HasSurplus() {
		t.Fatal("expected no surplus")
	}

	withDupes := InventoryState{
		SetKey{RealAppID: 730, Type: AssetTypeTradingCard}: {1: 2, 2: 1},
	}
	if !withDupes.HasSurplus() {
		t.Fatal("expected surplus")
	}
}

func TestDistinctRealAppIDsAndItemCount(t *testing.T) {
	state := InventoryState{
		SetKey{RealAppID: 730, Type: AssetTypeTradingCard}: {1: 2, 2: 1},
		SetKey{RealAppID: 730, Type: AssetTypeEmoticon}:    {3: 1},
		SetKey{RealAppID: 440, Type: AssetTypeTradingCard}: {4: 3},
	}
	if got := state.DistinctRealAppIDs(); got != 2 {
		t.Fatalf("DistinctRealAppIDs = %d, want 2", got)
	}
	if got := state.ItemCount(); got != 7 {
		t.Fatalf("ItemCount = %d, want 7", got)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	orig := InventoryState{
		SetKey{RealAppID: 730, Type: AssetTypeTradingCard}: {1: 2},
	}
	clone := orig.Clone()
	clone[SetKey{RealAppID: 730, Type: AssetTypeTradingCard}][1] = 99

	if orig[SetKey{RealAppID: 730, Type: AssetTypeTradingCard}][1] != 2 {
		t.Fatal("mutating clone must not affect original")
	}
}

func TestTypeSetIntersectAndSlice(t *testing.T) {
	a := NewTypeSet(AssetTypeTradingCard, AssetTypeEmoticon)
	b := NewTypeSet(AssetTypeEmoticon, AssetTypeProfileBackground)

	inter := a.Intersect(b)
	if len(inter) != 1 || !inter.Contains(AssetTypeEmoticon) {
		t.Fatalf("intersection = %v, want {Emoticon}", inter)
	}

	full := NewTypeSet(AssetTypeProfileBackground, AssetTypeTradingCard, AssetTypeEmoticon, AssetTypeFoilTradingCard)
	got := full.Slice()
	want := []int{int(AssetTypeTradingCard), int(AssetTypeFoilTradingCard), int(AssetTypeEmoticon), int(AssetTypeProfileBackground)}
	if len(got) != len(want) {
		t.Fatalf("Slice length = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("Slice = %v, want sorted %v", got, want)
		}
	}
}

func TestNewTypeSet_DropsNonMatchable(t *testing.T) {
	s := NewTypeSet(AssetTypeTradingCard, AssetType(42))
	if len(s) != 1 {
		t.Fatalf("expected non-matchable type to be dropped, got %v", s)
	}
}
