package monitor

import (
	"github.com/hyponcloud/hyponcloud/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "hypon"

// Collection stages used as the "stage" label of the errors counter.
const (
	stageAccount   = "account"
	stageOverview  = "overview"
	stagePlants    = "plants"
	stageInverters = "inverters"
	stageStorage   = "storage"
)

type metrics struct {
	overviewPower       prometheus.Gauge
	overviewCapacity    prometheus.Gauge
	overviewPercent     prometheus.Gauge
	overviewEnergyToday prometheus.Gauge
	overviewEnergyTotal prometheus.Gauge
	overviewDevices     *prometheus.GaugeVec
	overviewCO2         prometheus.Gauge
	overviewTrees       prometheus.Gauge

	plantPower       *prometheus.GaugeVec
	plantEnergyToday *prometheus.GaugeVec
	plantEnergyTotal *prometheus.GaugeVec

	inverterPower       *prometheus.GaugeVec
	inverterEnergyToday *prometheus.GaugeVec
	inverterEnergyTotal *prometheus.GaugeVec

	collectErrors *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

var (
	plantLabels    = []string{"plant_id", "plant_name"}
	inverterLabels = []string{"plant_id", "sn", "model"}
)

func newMetrics() *metrics {
	return &metrics{
		overviewPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "overview", Name: "power",
			Help: "Current power of the account in the unit reported by the cloud.",
		}),
		overviewCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "overview", Name: "capacity",
			Help: "Installed capacity of the account in the unit reported by the cloud.",
		}),
		overviewPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "overview", Name: "capacity_percent",
			Help: "Current power as a percent of installed capacity.",
		}),
		overviewEnergyToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "overview", Name: "energy_today_kwh",
			Help: "Energy produced today.",
		}),
		overviewEnergyTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "overview", Name: "energy_total_kwh",
			Help: "Energy produced since commissioning.",
		}),
		overviewDevices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "overview", Name: "devices",
			Help: "Number of devices by status.",
		}, []string{"status"}),
		overviewCO2: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "overview", Name: "co2_saved_kg",
			Help: "CO2 saved since commissioning.",
		}),
		overviewTrees: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "overview", Name: "trees",
			Help: "Equivalent trees planted.",
		}),

		plantPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "plant", Name: "power_watts",
			Help: "Current power of a plant.",
		}, plantLabels),
		plantEnergyToday: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "plant", Name: "energy_today_kwh",
			Help: "Energy produced today by a plant.",
		}, plantLabels),
		plantEnergyTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "plant", Name: "energy_total_kwh",
			Help: "Energy produced by a plant since commissioning.",
		}, plantLabels),

		inverterPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "inverter", Name: "power_watts",
			Help: "Current power of an inverter.",
		}, inverterLabels),
		inverterEnergyToday: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "inverter", Name: "energy_today_kwh",
			Help: "Energy produced today by an inverter.",
		}, inverterLabels),
		inverterEnergyTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "inverter", Name: "energy_total_kwh",
			Help: "Energy produced by an inverter since commissioning.",
		}, inverterLabels),

		collectErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "collect_errors_total",
			Help: "Failed collection steps by stage.",
		}, []string{"stage"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_success_timestamp_seconds",
			Help: "Unix time of the last successful collection.",
		}),
	}
}

func (m *metrics) register(reg *prometheus.Registry) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.overviewPower,
		m.overviewCapacity,
		m.overviewPercent,
		m.overviewEnergyToday,
		m.overviewEnergyTotal,
		m.overviewDevices,
		m.overviewCO2,
		m.overviewTrees,
		m.plantPower,
		m.plantEnergyToday,
		m.plantEnergyTotal,
		m.inverterPower,
		m.inverterEnergyToday,
		m.inverterEnergyTotal,
		m.collectErrors,
		m.lastSuccess,
	)
}

// observe replaces every gauge with the values of status. Plants and
// inverters that are no longer reported disappear.
func (m *metrics) observe(status types.Status) {
	o := status.Overview
	m.overviewPower.Set(float64(o.Power))
	m.overviewCapacity.Set(o.Capacity)
	m.overviewPercent.Set(float64(o.Percent))
	m.overviewEnergyToday.Set(o.EToday)
	m.overviewEnergyTotal.Set(o.ETotal)
	m.overviewDevices.WithLabelValues("normal").Set(float64(o.NormalDevNum))
	m.overviewDevices.WithLabelValues("offline").Set(float64(o.OfflineDevNum))
	m.overviewDevices.WithLabelValues("fault").Set(float64(o.FaultDevNum))
	m.overviewDevices.WithLabelValues("wait").Set(float64(o.WaitDevNum))
	m.overviewCO2.Set(float64(o.TotalCO2))
	m.overviewTrees.Set(o.TotalTree)

	m.plantPower.Reset()
	m.plantEnergyToday.Reset()
	m.plantEnergyTotal.Reset()
	m.inverterPower.Reset()
	m.inverterEnergyToday.Reset()
	m.inverterEnergyTotal.Reset()
	for _, ps := range status.Plants {
		p := ps.Plant
		m.plantPower.WithLabelValues(p.PlantID, p.PlantName).Set(float64(p.Power))
		m.plantEnergyToday.WithLabelValues(p.PlantID, p.PlantName).Set(p.EToday)
		m.plantEnergyTotal.WithLabelValues(p.PlantID, p.PlantName).Set(p.ETotal)
		for _, inv := range ps.Inverters {
			m.inverterPower.WithLabelValues(inv.PlantID, inv.SN, inv.Model).Set(float64(inv.Power))
			m.inverterEnergyToday.WithLabelValues(inv.PlantID, inv.SN, inv.Model).Set(inv.EToday)
			m.inverterEnergyTotal.WithLabelValues(inv.PlantID, inv.SN, inv.Model).Set(inv.ETotal)
		}
	}

	m.lastSuccess.Set(float64(status.Timestamp.Unix()))
}
