package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/hyponcloud/hyponcloud/pkg/types"
)

func printOverview(w io.Writer, o types.OverviewData) {
	fmt.Fprintln(w, "\n=== Plant Overview ===")
	fmt.Fprintf(w, "Current Power: %d %s\n", o.Power, o.Company)
	fmt.Fprintf(w, "Capacity: %g %s\n", o.Capacity, o.CapacityCompany)
	fmt.Fprintf(w, "Today's Energy: %g kWh\n", o.EToday)
	fmt.Fprintf(w, "Total Energy: %g kWh\n", o.ETotal)
	fmt.Fprintf(w, "Performance: %d%%\n", o.Percent)

	fmt.Fprintln(w, "\n=== Device Status ===")
	fmt.Fprintf(w, "Normal Devices: %d\n", o.NormalDevNum)
	fmt.Fprintf(w, "Offline Devices: %d\n", o.OfflineDevNum)
	fmt.Fprintf(w, "Faulty Devices: %d\n", o.FaultDevNum)
	fmt.Fprintf(w, "Waiting Devices: %d\n", o.WaitDevNum)

	fmt.Fprintln(w, "\n=== Environmental Impact ===")
	fmt.Fprintf(w, "Total CO2 Saved: %d kg\n", o.TotalCO2)
	fmt.Fprintf(w, "Equivalent Trees: %.1f\n", o.TotalTree)
}

func printPlants(w io.Writer, plants []types.PlantData) {
	fmt.Fprintf(w, "\n=== Plants (%d) ===\n", len(plants))
	for i, p := range plants {
		fmt.Fprintf(w, "\nPlant %d:\n", i+1)
		fmt.Fprintf(w, "  ID: %s\n", p.PlantID)
		fmt.Fprintf(w, "  Name: %s\n", p.PlantName)
		fmt.Fprintf(w, "  Location: %s, %s\n", p.City, p.Country)
		fmt.Fprintf(w, "  Status: %s\n", p.Status)
		fmt.Fprintf(w, "  Power: %d W\n", p.Power)
		fmt.Fprintf(w, "  Today: %g kWh\n", p.EToday)
		fmt.Fprintf(w, "  Total: %g kWh\n", p.ETotal)
	}
}

func printInverters(w io.Writer, inverters []types.InverterData) {
	fmt.Fprintf(w, "\n=== Inverters (%d) ===\n", len(inverters))
	for i, inv := range inverters {
		fmt.Fprintf(w, "\nInverter %d:\n", i+1)
		fmt.Fprintf(w, "  Serial Number: %s\n", inv.SN)
		fmt.Fprintf(w, "  Model: %s\n", inv.Model)
		fmt.Fprintf(w, "  Status: %s\n", inv.Status)
		fmt.Fprintf(w, "  Power: %d W\n", inv.Power)
		fmt.Fprintf(w, "  Today: %g kWh\n", inv.EToday)
		fmt.Fprintf(w, "  Total: %g kWh\n", inv.ETotal)
		fmt.Fprintf(w, "  Software Version: %s\n", inv.SoftwareVersion)
	}
}

func printAdmin(w io.Writer, a types.AdminInfo) {
	roles := "N/A"
	if len(a.Role) > 0 {
		roles = strings.Join(a.Role, ", ")
	}
	name := a.FullName()
	if name == "" {
		name = "N/A"
	}

	fmt.Fprintln(w, "\n=== Administrator Info ===")
	fmt.Fprintf(w, "Parent Name: %s\n", a.ParentName)
	fmt.Fprintf(w, "Roles: %s\n", roles)

	fmt.Fprintln(w, "\n=== User Details ===")
	fmt.Fprintf(w, "User ID: %s\n", a.ID)
	fmt.Fprintf(w, "Username: %s\n", a.Username)
	fmt.Fprintf(w, "Email: %s\n", a.Email)
	fmt.Fprintf(w, "Name: %s\n", name)
	fmt.Fprintf(w, "Location: %s, %s\n", a.City, a.Country)
	fmt.Fprintf(w, "Language: %s\n", a.Language)
	fmt.Fprintf(w, "Timezone: %s\n", a.Timezone)
	fmt.Fprintf(w, "Last Login: %s\n", a.LastLoginTime)
	fmt.Fprintf(w, "Last Login IP: %s\n", a.LastLoginIP)
}
