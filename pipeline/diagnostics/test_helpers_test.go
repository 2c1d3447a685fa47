package diagnostics

import (
	"strings"

	"github.com/eb-examples/ebgov/pipeline"
)

// table builds a pipeline.Table from comma-separated header and rows.
func table(name, header string, rows ...string) *pipeline.Table {
	t := &pipeline.Table{Name: name, Columns: strings.Split(header, ",")}
	for _, r := range rows {
		t.Rows = append(t.Rows, strings.Split(r, ","))
	}
	return t
}

func goldenSources() Sources {
	return Sources{
		CWSL: table("cwsl_v1", "entity_id,cwsl,cu,co",
			"s2::burger,1.5,2,1",
			"s1::burger,0.5,2,1",
			"s1::fries,2.0,2,1",
			"s1::shake,3.0,2,1",
		),
		HRTau: table("hr_tau_v1", "entity_id,hr_tau",
			"s1::burger,0.8",
			"s2::burger,0.7",
			"s1::fries,0.65",
		),
		NSLUD: table("nsl_ud_v1", "entity_id,nsl,ud",
			"s1::burger,0.9,1.1",
			"s2::burger,,1.3",
			"s1::fries,0.5,0.4",
			"s1::shake,0.1,0.2",
		),
		DQC: table("dqc_v1", "forecast_entity_id,dqc_class,granularity",
			"burger,PIECEWISE_OK,1",
			"fries,INCOMPATIBLE,1",
		),
		FPC: table("fpc_v1", "forecast_entity_id,fpc_class",
			"fries,COMPATIBLE",
			"burger,",
		),
	}
}
