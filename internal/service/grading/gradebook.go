package grading

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

var gradebookHeader = []string{"student", "grade", "ind_grades", "feedback", "word count", "sentence count", "responses"}

// WriteGradebook 写出成绩册 CSV，列表字段编码为 JSON 数组
func WriteGradebook(w io.Writer, results []*Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(gradebookHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Participant,
			strconv.Itoa(r.FinalGrade),
			jsonList(r.Grades),
			r.Feedback,
			jsonList(r.WordCounts),
			jsonList(r.SentenceCounts),
			jsonList(r.Responses),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func jsonList(v []int) string {
	if v == nil {
		v = []int{}
	}
	data, _ := json.Marshal(v)
	return string(data)
}
