package history

// npcCellSize is the grid used to deduplicate NPC encounters: two dialogue
// positions within the same 16-unit cell of the same room count as the same
// NPC.
const npcCellSize = 16

// BucketKey identifies one spatial grid cell.
type BucketKey struct {
	Room int `json:"room"`
	GX   int `json:"gx"`
	GY   int `json:"gy"`
}

// bucketFor quantizes a position into its grid cell. Integer division
// truncates toward zero, so cells straddling zero on a negative axis are
// narrower than the rest; game rooms never report negative coordinates, so
// the quirk is latent and kept for compatibility.
func bucketFor(room, x, y int) BucketKey {
	return BucketKey{Room: room, GX: x / npcCellSize, GY: y / npcCellSize}
}
