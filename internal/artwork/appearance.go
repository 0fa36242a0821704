package artwork

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github-tamagotchi/internal/domain/pets"
)

// Opciones de apariencia. El hash del repo indexa acá, así el mismo repo
// siempre produce la misma criatura.
var (
	Colors = []string{
		"blue", "pink", "green", "purple", "orange",
		"yellow", "teal", "red", "lavender", "mint",
	}

	Patterns = []string{
		"spotted", "striped", "solid", "gradient",
		"polka-dotted", "star-patterned", "swirled", "checkered",
	}

	Species = []string{
		"blob", "bird", "cat-like", "bunny", "dragon",
		"slime", "ghost", "fox", "bear", "penguin",
	}
)

var stageDescriptions = map[pets.Stage]string{
	pets.StageEgg:   "egg with small crack and inner glow",
	pets.StageBaby:  "tiny newborn blob with huge eyes",
	pets.StageChild: "small round creature with stubby limbs",
	pets.StageTeen:  "growing creature with defined features",
	pets.StageAdult: "fully grown, confident pose",
	pets.StageElder: "wise ancient creature with crown or beard",
}

// Appearance es el look determinístico de la mascota de un repo.
type Appearance struct {
	Color   string `json:"color"`
	Pattern string `json:"pattern"`
	Species string `json:"species"`
}

// RepoHash: SHA-256 de "owner/repo".
func RepoHash(owner, repo string) [32]byte {
	return sha256.Sum256([]byte(owner + "/" + repo))
}

// SeedFrom toma los primeros 4 bytes del hash (big endian) como seed
// reproducible para el sampler.
func SeedFrom(hash [32]byte) uint32 {
	return binary.BigEndian.Uint32(hash[:4])
}

// AppearanceFor deriva color/patrón/especie de los bytes del hash.
func AppearanceFor(owner, repo string) Appearance {
	h := RepoHash(owner, repo)
	return Appearance{
		Color:   Colors[int(h[0])%len(Colors)],
		Pattern: Patterns[int(h[1])%len(Patterns)],
		Species: Species[int(h[2])%len(Species)],
	}
}

// PromptFor arma el prompt de generación para un stage.
func PromptFor(owner, repo string, stage pets.Stage) string {
	a := AppearanceFor(owner, repo)
	desc, ok := stageDescriptions[stage]
	if !ok {
		desc = "cute creature"
	}

	return fmt.Sprintf(`cute pixel art tamagotchi pet, %s %s creature,
%s pattern, %s,
kawaii style, white background, game sprite, centered`,
		a.Color, a.Species, a.Pattern, desc)
}

// StageDescription expone la descripción fija de un stage (para el
// endpoint de characteristics).
func StageDescription(stage pets.Stage) string {
	if d, ok := stageDescriptions[stage]; ok {
		return d
	}
	return "cute creature"
}
