package eval

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// DialogTurn is one utterance in a patient-doctor dialogue.
type DialogTurn struct {
	Speaker   string `json:"speaker"`
	Utterance string `json:"utterance"`
}

// DialogExample is one evaluation dialogue with its ground-truth drug
// recommendations and reference response.
type DialogExample struct {
	Dialogue          []DialogTurn `json:"dialogue"`
	GroundTruthDrugs  []string     `json:"ground_truth_drugs"`
	Medications       []string     `json:"medications"`
	ReferenceResponse string       `json:"reference_response"`
}

// PatientQuery joins the patient utterances into the query posed to the
// pipeline; doctor turns are context for the annotator, not input.
func (e DialogExample) PatientQuery() string {
	var parts []string
	for _, turn := range e.Dialogue {
		if turn.Speaker == "patient" && turn.Utterance != "" {
			parts = append(parts, turn.Utterance)
		}
	}
	return strings.Join(parts, " ")
}

// TrueDrugs returns the annotated recommendations, preferring the curated
// ground_truth_drugs field over the raw medications list.
func (e DialogExample) TrueDrugs() []string {
	if len(e.GroundTruthDrugs) > 0 {
		return e.GroundTruthDrugs
	}
	return e.Medications
}

// DrugMetrics holds set-based recommendation scores over a dialogue batch.
type DrugMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// DialogResults is the persisted outcome of a dialogue evaluation run.
type DialogResults struct {
	Dataset     string      `json:"dataset"`
	NExamples   int         `json:"n_examples"`
	DrugMetrics DrugMetrics `json:"drug_metrics"`
}

// LoadDrugList reads one drug name per line, lowercased and deduplicated.
func LoadDrugList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]bool)
	var drugs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		drugs = append(drugs, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return drugs, nil
}

// LoadDialogs reads a JSON array of dialogue examples.
func LoadDialogs(path string) ([]DialogExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var examples []DialogExample
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("couldn't parse dialogue dataset %s: %w", path, err)
	}
	return examples, nil
}

// ExtractDrugs finds every known drug name mentioned in the text, longest
// names first so "co-amoxiclav" wins over "amoxiclav". Matching is
// case-insensitive substring search; returned names are lowercase.
func ExtractDrugs(text string, drugs []string) []string {
	if strings.TrimSpace(text) == "" || len(drugs) == 0 {
		return nil
	}
	byLength := make([]string, len(drugs))
	copy(byLength, drugs)
	sort.SliceStable(byLength, func(i, j int) bool {
		return len(byLength[i]) > len(byLength[j])
	})

	textLower := strings.ToLower(text)
	var found []string
	for _, drug := range byLength {
		if strings.Contains(textLower, drug) {
			found = append(found, drug)
		}
	}
	return found
}

// DrugPrecision is the mean per-dialogue fraction of recommended drugs that
// are annotated as correct. A dialogue with no recommendations scores 0.
func DrugPrecision(preds, refs [][]string) float64 {
	var sum float64
	n := 0
	for i := range preds {
		if i >= len(refs) {
			break
		}
		n++
		predSet := lowerSet(preds[i])
		if len(predSet) == 0 {
			continue
		}
		sum += float64(intersection(predSet, lowerSet(refs[i]))) / float64(len(predSet))
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// DrugRecall is the mean per-dialogue fraction of annotated drugs that the
// answer recommended. A dialogue with no annotations scores 0.
func DrugRecall(preds, refs [][]string) float64 {
	var sum float64
	n := 0
	for i := range preds {
		if i >= len(refs) {
			break
		}
		n++
		refSet := lowerSet(refs[i])
		if len(refSet) == 0 {
			continue
		}
		sum += float64(intersection(lowerSet(preds[i]), refSet)) / float64(len(refSet))
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// DrugF1 is the harmonic mean of the batch precision and recall means.
func DrugF1(preds, refs [][]string) float64 {
	prec := DrugPrecision(preds, refs)
	rec := DrugRecall(preds, refs)
	if prec+rec == 0 {
		return 0
	}
	return 2 * prec * rec / (prec + rec)
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = true
	}
	return set
}

func intersection(a, b map[string]bool) int {
	n := 0
	for k := range a {
		if b[k] {
			n++
		}
	}
	return n
}

// DialogEvaluator scores the pipeline's drug recommendations against
// annotated dialogues.
type DialogEvaluator struct {
	Answerer AnswerProvider
	Drugs    []string
}

// Evaluate answers each dialogue's patient query and scores the drugs
// mentioned in the answer against the annotations. Examples without a
// patient query or annotations are skipped, as is any example whose answer
// fails; a bad dialogue never aborts the batch.
func (e *DialogEvaluator) Evaluate(ctx context.Context, dataset string, examples []DialogExample) (DialogResults, error) {
	var preds, refs [][]string
	for i, ex := range examples {
		query := ex.PatientQuery()
		if query == "" {
			continue
		}
		trueDrugs := ex.TrueDrugs()
		if len(trueDrugs) == 0 {
			continue
		}

		ans, err := e.Answerer.Answer(ctx, query)
		if err != nil {
			slog.Error("skipping dialogue", "example", i, "err", err)
			fmt.Printf("[FAIL] example %d: %v\n", i+1, err)
			continue
		}

		predDrugs := ExtractDrugs(ans.Text, e.Drugs)
		preds = append(preds, predDrugs)
		refs = append(refs, trueDrugs)
		fmt.Printf("[OK] example %d: recommended %v, annotated %v\n", i+1, predDrugs, trueDrugs)
	}

	if len(preds) == 0 {
		return DialogResults{Dataset: dataset}, fmt.Errorf("no dialogues evaluated successfully")
	}
	return DialogResults{
		Dataset:   dataset,
		NExamples: len(preds),
		DrugMetrics: DrugMetrics{
			Precision: DrugPrecision(preds, refs),
			Recall:    DrugRecall(preds, refs),
			F1:        DrugF1(preds, refs),
		},
	}, nil
}

// WriteDialogResults persists the results as indented JSON.
func WriteDialogResults(path string, results DialogResults) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("couldn't create results file: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
