package ml

import "time"

// Metrics is the evaluation of a model on held-out rows.
type Metrics struct {
	Accuracy          float64            `json:"accuracy"`
	Precision         map[string]float64 `json:"precision"`
	Recall            map[string]float64 `json:"recall"`
	F1Score           map[string]float64 `json:"f1_score"`
	ConfusionMatrix   [][]int            `json:"confusion_matrix"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	ModelVersion      string             `json:"model_version"`
	LastUpdated       time.Time          `json:"last_updated"`
	Samples           int                `json:"samples"`
}

// Evaluate scores predictions against truth. Rows of the confusion matrix
// are true classes, columns predicted classes, both in label-code order.
// Precision or recall with an empty denominator is reported as 0.
func Evaluate(yTrue, yPred []int, classes []string) *Metrics {
	k := len(classes)
	cm := make([][]int, k)
	for i := range cm {
		cm[i] = make([]int, k)
	}
	correct := 0
	for i := range yTrue {
		cm[yTrue[i]][yPred[i]]++
		if yTrue[i] == yPred[i] {
			correct++
		}
	}

	m := &Metrics{
		Precision:       make(map[string]float64, k),
		Recall:          make(map[string]float64, k),
		F1Score:         make(map[string]float64, k),
		ConfusionMatrix: cm,
		Samples:         len(yTrue),
	}
	if len(yTrue) > 0 {
		m.Accuracy = float64(correct) / float64(len(yTrue))
	}

	for c, name := range classes {
		tp := cm[c][c]
		var predicted, actual int
		for j := 0; j < k; j++ {
			predicted += cm[j][c]
			actual += cm[c][j]
		}
		var precision, recall, f1 float64
		if predicted > 0 {
			precision = float64(tp) / float64(predicted)
		}
		if actual > 0 {
			recall = float64(tp) / float64(actual)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		m.Precision[name] = precision
		m.Recall[name] = recall
		m.F1Score[name] = f1
	}
	return m
}
