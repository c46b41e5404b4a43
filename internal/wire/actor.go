package wire

// Actor records which admin created or last changed a record.
type Actor struct {
	NetworkID string `bson:"networkId" json:"networkId"`
	Name      string `bson:"name" json:"name"`
}

const unknownActor = "unknown"

// NewActor fills blanks with "unknown", matching records written by clients
// that did not authenticate.
func NewActor(networkID, name string) Actor {
	if networkID == "" {
		networkID = unknownActor
	}
	if name == "" {
		name = unknownActor
	}
	return Actor{NetworkID: networkID, Name: name}
}
