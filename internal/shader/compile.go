package shader

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

var spirvCache sync.Map // Program -> []uint32

// CompileSPIRV compiles the program's WGSL to SPIR-V words. Results are
// cached per program.
func CompileSPIRV(p Program) ([]uint32, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("shader: invalid program %d", int(p))
	}
	if words, ok := spirvCache.Load(p); ok {
		return words.([]uint32), nil
	}

	spirvBytes, err := naga.Compile(p.Source())
	if err != nil {
		return nil, fmt.Errorf("shader: compile %s: %w", p, err)
	}
	if len(spirvBytes) < 4 || len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader: compile %s: malformed SPIR-V (%d bytes)", p, len(spirvBytes))
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("shader: compile %s: bad SPIR-V magic %#x", p, words[0])
	}

	spirvCache.Store(p, words)
	return words, nil
}
