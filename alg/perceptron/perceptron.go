package perceptron

import (
	"log"
)

type LinearPerceptron struct {
	Decoder      EarlyUpdateInstanceDecoder
	Updater      UpdateStrategy
	Iterations   int
	LearningRate float64
	Model        Model
	Log          *log.Logger

	FailedInstances int
	Errors          []int
}

var _ SupervisedTrainer = &LinearPerceptron{}

func (m *LinearPerceptron) Init(newModel Model) {
	m.Model = newModel
	if m.Updater == nil {
		m.Updater = &TrivialStrategy{}
	}
	if m.LearningRate == 0 {
		m.LearningRate = 1.0
	}
	m.Updater.Init(m.Model, m.Iterations)
}

func (m *LinearPerceptron) Train(goldInstances []DecodedInstance) {
	m.train(goldInstances, m.Decoder, m.Iterations)
}

func (m *LinearPerceptron) logf(format string, v ...interface{}) {
	if m.Log != nil {
		m.Log.Printf(format, v...)
	}
}

func (m *LinearPerceptron) train(goldInstances []DecodedInstance, decoder EarlyUpdateInstanceDecoder, iterations int) {
	if m.Model == nil {
		panic("Model not initialized")
	}
	m.Errors = m.Errors[:0]
	for i := 0; i < iterations; i++ {
		var errors int
		for j, goldInstance := range goldInstances {
			decodedInstance, decodedFeatures, goldFeatures, _ := decoder.DecodeEarlyUpdate(goldInstance, m.Model)
			if decodedInstance == nil {
				if i == 0 {
					m.logf("IT #%d instance %d skipped (decode)", i, j)
					m.FailedInstances++
				}
				continue
			}
			if !goldInstance.Equal(decodedInstance) {
				errors++
				m.Model.AddSubtract(goldFeatures, decodedFeatures, m.LearningRate)
			}
			m.Updater.Update(m.Model)
		}
		m.Errors = append(m.Errors, errors)
		m.logf("IT #%d: %d errors in %d instances", i, errors, len(goldInstances))
	}
	m.Model = m.Updater.Finalize(m.Model)
}

type UpdateStrategy interface {
	Init(m Model, iterations int)
	Update(model Model)
	Finalize(m Model) Model
}

type TrivialStrategy struct{}

func (u *TrivialStrategy) Init(m Model, iterations int) {

}

func (u *TrivialStrategy) Update(m Model) {

}

func (u *TrivialStrategy) Finalize(m Model) Model {
	return m
}

type AveragedStrategy struct {
	P, N       int64
	accumModel Model
}

func (u *AveragedStrategy) Init(m Model, iterations int) {
	// explicitly reset u.N = 0 in case of reuse of vector
	u.N = 0
	u.P = int64(iterations)
	u.accumModel = m.New()
}

func (u *AveragedStrategy) Update(m Model) {
	u.accumModel.AddModel(m)
	u.N += 1
}

func (u *AveragedStrategy) Finalize(m Model) Model {
	// u.N already equals iterations*instances
	if u.N == 0 {
		return m
	}
	u.accumModel.ScalarDivide(float64(u.N))
	return u.accumModel
}
