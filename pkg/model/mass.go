package model

import (
	"fmt"

	"lensfit/pkg/profile"
)

// MassModel is an ordered composition of deflection-contributing
// profiles. Contributions are additive, so the evaluation result is
// independent of the profile order.
type MassModel struct {
	profiles  []profile.MassProfile
	offsets   []int
	numParams int
}

// NewMassModel composes profiles into a mass model. An empty
// composition is a configuration error.
func NewMassModel(profiles ...profile.MassProfile) (*MassModel, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("model: mass model must contain at least one profile")
	}
	m := &MassModel{
		profiles: profiles,
		offsets:  make([]int, len(profiles)),
	}
	for i, p := range profiles {
		m.offsets[i] = m.numParams
		m.numParams += p.NumParams()
	}
	return m, nil
}

// NumParams returns the total parameter count over all member profiles.
func (m *MassModel) NumParams() int { return m.numParams }

// Profiles returns the ordered member profiles.
func (m *MassModel) Profiles() []profile.MassProfile { return m.profiles }

// block returns the parameter block of profile i inside params.
func (m *MassModel) block(params []float64, i int) []float64 {
	return params[m.offsets[i] : m.offsets[i]+m.profiles[i].NumParams()]
}

func (m *MassModel) validate(params []float64) error {
	if len(params) != m.numParams {
		return fmt.Errorf("model: mass parameter vector length %d does not match model length %d", len(params), m.numParams)
	}
	return nil
}

// Deflection sums the deflection fields of all member profiles.
func (m *MassModel) Deflection(x, y, params []float64) (ax, ay []float64, err error) {
	if err := m.validate(params); err != nil {
		return nil, nil, err
	}
	ax = make([]float64, len(x))
	ay = make([]float64, len(x))
	for i, p := range m.profiles {
		px, py := p.Deflection(x, y, m.block(params, i))
		for j := range ax {
			ax[j] += px[j]
			ay[j] += py[j]
		}
	}
	return ax, ay, nil
}

// Potential sums the lensing potentials of all member profiles.
func (m *MassModel) Potential(x, y, params []float64) ([]float64, error) {
	if err := m.validate(params); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, p := range m.profiles {
		pv := p.Potential(x, y, m.block(params, i))
		for j := range out {
			out[j] += pv[j]
		}
	}
	return out, nil
}

// Convergence sums the convergence fields of all member profiles.
func (m *MassModel) Convergence(x, y, params []float64) ([]float64, error) {
	if err := m.validate(params); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, p := range m.profiles {
		pv := p.Convergence(x, y, m.block(params, i))
		for j := range out {
			out[j] += pv[j]
		}
	}
	return out, nil
}

// DescribeBlocks returns schema blocks for the member profiles, named
// under the given prefix.
func (m *MassModel) DescribeBlocks(prefix string) []Block {
	blocks := make([]Block, len(m.profiles))
	for i, p := range m.profiles {
		blocks[i] = Block{
			Name:       fmt.Sprintf("%s.%d.%s", prefix, i, p.Tag()),
			Tag:        p.Tag(),
			Size:       p.NumParams(),
			ParamNames: p.ParamNames(),
		}
	}
	return blocks
}
