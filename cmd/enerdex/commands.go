package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question answered from the producer directory",
	Long: `Ask a natural-language question. The answer is grounded in stored
producer data; when the directory cannot answer, a web search suggestion
is printed instead.

Examples:
  enerdex ask "who sells solar panels in Germany?"
  enerdex ask what wind producers do we know`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/chat", map[string]string{"question": question})
		if err != nil {
			return err
		}

		var result struct {
			Kind        string `json:"kind"`
			Text        string `json:"text"`
			SearchQuery string `json:"search_query"`
			SearchURL   string `json:"search_url"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Text)
		if result.Kind == "fallback" {
			fmt.Println()
			printWarning("Not answerable from the directory. Suggested search: %s", result.SearchQuery)
			fmt.Println(result.SearchURL)
		}
		return nil
	},
}

// --- query ---

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Translate a question to read-only SQL and run it",
	Long: `Translate a natural-language question into a single SELECT over the
producers table, execute it, and print the result.

Examples:
  enerdex query "how many producers per category?"
  enerdex query list all wind producers by name`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		showSQL, _ := cmd.Flags().GetBool("sql")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/query", map[string]string{"question": question})
		if err != nil {
			return err
		}

		var result struct {
			SQL     string     `json:"sql"`
			Columns []string   `json:"columns"`
			Rows    [][]string `json:"rows"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if showSQL {
			fmt.Println(colorize(colorCyan, result.SQL))
			fmt.Println()
		}

		if len(result.Rows) == 0 {
			fmt.Println("No rows.")
			return nil
		}

		fmt.Println(colorize(colorBold, strings.Join(result.Columns, "\t")))
		for _, row := range result.Rows {
			fmt.Println(strings.Join(row, "\t"))
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().Bool("sql", false, "print the generated SQL before the rows")
}

// --- producer ---

var producerCmd = &cobra.Command{
	Use:   "producer",
	Short: "Manage producer records",
}

var producerAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a producer to the directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contact, _ := cmd.Flags().GetString("contact")
		address, _ := cmd.Flags().GetString("address")
		products, _ := cmd.Flags().GetString("products")
		category, _ := cmd.Flags().GetString("category")
		suggest, _ := cmd.Flags().GetBool("suggest")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if suggest && (products == "" || category == "") {
			s, err := suggestFields(cmd, client, args[0], contact, address)
			if err != nil {
				printWarning("Field suggestion unavailable: %v", err)
			} else {
				if category == "" && s.Category != "" {
					category = s.Category
					printStatus("Suggested category", "%s", s.Category)
				}
				if products == "" && s.Products != "" {
					products = s.Products
					printStatus("Suggested products", "%s", s.Products)
				}
			}
		}

		resp, err := client.post(cmd.Context(), "/producers", map[string]string{
			"name":     args[0],
			"contact":  contact,
			"address":  address,
			"products": products,
			"category": category,
		})
		if err != nil {
			return err
		}

		var result struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Added producer %q (id %d)", result.Name, result.ID)
		return nil
	},
}

var producerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List producers, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		by, _ := cmd.Flags().GetString("by")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/producers"
		if search != "" {
			path = fmt.Sprintf("/producers?search=%s&by=%s", url.QueryEscape(search), url.QueryEscape(by))
		}

		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var producers []struct {
			ID       int64  `json:"id"`
			Name     string `json:"name"`
			Products string `json:"products"`
			Category string `json:"category"`
		}
		if err := decodeJSON(resp, &producers); err != nil {
			return err
		}

		if len(producers) == 0 {
			fmt.Println("No producers found.")
			return nil
		}

		for _, p := range producers {
			category := p.Category
			if category == "" {
				category = "-"
			}
			fmt.Printf("%s  %-12s  %s\n",
				colorize(colorCyan, fmt.Sprintf("%4d", p.ID)),
				category,
				p.Name,
			)
		}
		return nil
	},
}

var producerShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single producer as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/producers/"+args[0])
		if err != nil {
			return err
		}

		var producer any
		if err := decodeJSON(resp, &producer); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(producer)
	},
}

var producerUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a producer record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		// Fetch the current record so unset flags keep their values.
		getResp, err := client.get(cmd.Context(), "/producers/"+args[0])
		if err != nil {
			return err
		}

		var current struct {
			Name     string `json:"name"`
			Contact  string `json:"contact"`
			Address  string `json:"address"`
			Products string `json:"products"`
			Category string `json:"category"`
		}
		if err := decodeJSON(getResp, &current); err != nil {
			return err
		}

		for flag, dst := range map[string]*string{
			"name":     &current.Name,
			"contact":  &current.Contact,
			"address":  &current.Address,
			"products": &current.Products,
			"category": &current.Category,
		} {
			if cmd.Flags().Changed(flag) {
				*dst, _ = cmd.Flags().GetString(flag)
			}
		}

		resp, err := client.put(cmd.Context(), "/producers/"+args[0], current)
		if err != nil {
			return err
		}

		var updated struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		if err := decodeJSON(resp, &updated); err != nil {
			return err
		}

		printSuccess("Updated producer %q (id %d)", updated.Name, updated.ID)

		if review, _ := cmd.Flags().GetBool("review"); review {
			reviewResp, err := client.post(cmd.Context(), "/producers/"+args[0]+"/review", nil)
			if err != nil {
				printWarning("Record review unavailable: %v", err)
				return nil
			}
			var out struct {
				Assessment string `json:"assessment"`
			}
			if err := decodeJSON(reviewResp, &out); err != nil {
				printWarning("Record review unavailable: %v", err)
				return nil
			}
			if out.Assessment == "" {
				printStatus("Review", "no issues found")
			} else {
				printStatus("Review", "%s", out.Assessment)
			}
		}
		return nil
	},
}

// suggestFields asks the server to infer values for fields the caller left
// blank. Errors here never fail the add, only skip the suggestion.
func suggestFields(cmd *cobra.Command, client *apiClient, name, contact, address string) (SuggestResult, error) {
	var s SuggestResult
	resp, err := client.post(cmd.Context(), "/producers/suggest", map[string]string{
		"name":    name,
		"contact": contact,
		"address": address,
	})
	if err != nil {
		return s, err
	}
	if err := decodeJSON(resp, &s); err != nil {
		return s, err
	}
	return s, nil
}

type SuggestResult struct {
	Category string `json:"category"`
	Products string `json:"products"`
}

var producerRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a producer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/producers/"+args[0])
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		printSuccess("Deleted producer %s", args[0])
		return nil
	},
}

func init() {
	producerAddCmd.Flags().String("contact", "", "contact details")
	producerAddCmd.Flags().String("address", "", "postal address")
	producerAddCmd.Flags().String("products", "", "products offered")
	producerAddCmd.Flags().String("category", "", "energy category (e.g. Solar, Wind)")
	producerAddCmd.Flags().Bool("suggest", false, "ask the model to fill in missing products/category")
	producerListCmd.Flags().String("search", "", "filter text")
	producerListCmd.Flags().String("by", "name", "filter field: name or category")
	producerUpdateCmd.Flags().String("name", "", "new producer name")
	producerUpdateCmd.Flags().String("contact", "", "new contact details")
	producerUpdateCmd.Flags().String("address", "", "new postal address")
	producerUpdateCmd.Flags().String("products", "", "new products list")
	producerUpdateCmd.Flags().String("category", "", "new energy category")
	producerUpdateCmd.Flags().Bool("review", false, "ask the model to assess the updated record")
	producerCmd.AddCommand(producerAddCmd)
	producerCmd.AddCommand(producerListCmd)
	producerCmd.AddCommand(producerShowCmd)
	producerCmd.AddCommand(producerUpdateCmd)
	producerCmd.AddCommand(producerRemoveCmd)
}

// --- interactions ---

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Inspect logged assistant interactions",
}

var interactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/interactions?limit=%d", limit))
		if err != nil {
			return err
		}

		var interactions []struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Kind      string `json:"kind"`
			Question  string `json:"question"`
			Outcome   string `json:"outcome"`
		}
		if err := decodeJSON(resp, &interactions); err != nil {
			return err
		}

		if len(interactions) == 0 {
			fmt.Println("No interactions found.")
			return nil
		}

		for _, ix := range interactions {
			question := ix.Question
			if len(question) > 60 {
				question = question[:60] + "..."
			}
			fmt.Printf("%s  %s  %-5s  %-9s  %s\n",
				colorize(colorCyan, ix.ID[:8]),
				ix.CreatedAt,
				ix.Kind,
				ix.Outcome,
				question,
			)
		}
		return nil
	},
}

var interactionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single interaction as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/interactions/"+args[0])
		if err != nil {
			return err
		}

		var interaction any
		if err := decodeJSON(resp, &interaction); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(interaction)
	},
}

var interactionsRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an interaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/interactions/"+args[0])
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		printSuccess("Deleted interaction %s", args[0])
		return nil
	},
}

func init() {
	interactionsListCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	interactionsCmd.AddCommand(interactionsListCmd)
	interactionsCmd.AddCommand(interactionsShowCmd)
	interactionsCmd.AddCommand(interactionsRemoveCmd)
}
