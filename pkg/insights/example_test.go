package insights

import (
	"encoding/json"
	"fmt"
)

func ExampleNewReport() {
	coverage, _ := PercentageData("Coverage", 85.5)

	report, err := NewReport("Unit tests").
		Result(ResultPass).
		Data(coverage).
		Reporter("Example Analyzer").
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}

	encoded, _ := json.Marshal(report)
	fmt.Println(string(encoded))
	// Output: {"title":"Unit tests","result":"PASS","data":[{"title":"Coverage","type":"PERCENTAGE","value":85.5}],"reporter":"Example Analyzer"}
}

func ExampleNewAnnotation() {
	annotation, err := NewAnnotation("src/main.go", 42, "unused variable").
		Severity(SeverityLow).
		Type(TypeCodeSmell).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}

	encoded, _ := json.Marshal(annotation)
	fmt.Println(string(encoded))
	// Output: {"path":"src/main.go","line":42,"message":"unused variable","severity":"LOW","type":"CODE_SMELL"}
}
