package perceptron

import (
	"github.com/AnneBeyer/tgen/alg/featurevector"
	"github.com/AnneBeyer/tgen/util"
)

type Model interface {
	Score(features interface{}) float64
	AddSubtract(goldFeatures, decodedFeatures interface{}, amount float64)
	ScalarDivide(float64)
	Copy() Model
	AddModel(Model)
	New() Model
}

type Instance interface {
	util.Equaler
}

type DecodedInstance interface {
	Instance
	Instance() Instance
	Decoded() interface{}
}

type Decoded struct {
	InstanceVal Instance
	DecodedVal  util.Equaler
}

var _ DecodedInstance = &Decoded{}

func (d *Decoded) Decoded() interface{} {
	return d.DecodedVal
}

func (d *Decoded) Instance() Instance {
	return d.InstanceVal
}

func (d *Decoded) Equal(otherEq util.Equaler) bool {
	other, ok := otherEq.(*Decoded)
	if !ok || other == nil {
		return false
	}
	instanceEq := d.InstanceVal.Equal(other.InstanceVal)
	decodedEq := d.DecodedVal.Equal(other.DecodedVal)
	return instanceEq && decodedEq
}

// EarlyUpdateInstanceDecoder predicts the decoded value of a gold instance
// under the current model. It returns a nil instance when the gold instance
// cannot be decoded at all; such instances are skipped.
type EarlyUpdateInstanceDecoder interface {
	DecodeEarlyUpdate(gold DecodedInstance, m Model) (decoded DecodedInstance, decodedFeatures, goldFeatures interface{}, decodeScore float64)
}

type SupervisedTrainer interface {
	Train(instances []DecodedInstance)
}

// SparseModel is a linear model over string features. Features passed to
// it must be featurevector.Sparse values.
type SparseModel struct {
	Weights featurevector.Sparse
}

var _ Model = &SparseModel{}

func NewSparseModel() *SparseModel {
	return &SparseModel{featurevector.NewSparse()}
}

func asSparse(features interface{}) featurevector.Sparse {
	if features == nil {
		return nil
	}
	return features.(featurevector.Sparse)
}

func (m *SparseModel) Score(features interface{}) float64 {
	return m.Weights.DotProduct(asSparse(features))
}

// AddSubtract moves the weights by amount towards the gold features and
// away from the decoded ones.
func (m *SparseModel) AddSubtract(goldFeatures, decodedFeatures interface{}, amount float64) {
	m.Weights.UpdateAddScaled(asSparse(goldFeatures), amount)
	m.Weights.UpdateAddScaled(asSparse(decodedFeatures), -amount)
}

func (m *SparseModel) ScalarDivide(by float64) {
	m.Weights.UpdateScalarDivide(by)
}

func (m *SparseModel) Copy() Model {
	return &SparseModel{m.Weights.Copy()}
}

func (m *SparseModel) AddModel(other Model) {
	m.Weights.UpdateAdd(other.(*SparseModel).Weights)
}

func (m *SparseModel) New() Model {
	return NewSparseModel()
}
