package commands

import (
	"fmt"

	"github.com/fivetwenty-io/paybill/internal/constants"
	"github.com/fivetwenty-io/paybill/pkg/paybill"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewProductsCommand creates the products command group
func NewProductsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Manage catalog products",
		Long:    "List, inspect, create and update catalog products",
	}

	cmd.AddCommand(newProductsListCommand())
	cmd.AddCommand(newProductsGetCommand())
	cmd.AddCommand(newProductsCreateCommand())
	cmd.AddCommand(newProductsUpdateCommand())

	return cmd
}

func newProductsListCommand() *cobra.Command {
	opts := &paybill.ProductListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog products",
		Long:  "List catalog products page by page",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newIdentifiedClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			products, err := client.Products().List(commandContext(cmd), opts)
			if err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}

			return render(cmd, products.Values(), []string{"ID", "Name", "Type", "Category", "Created"},
				func(table *tablewriter.Table) {
					products.Each(func(_ string, product *paybill.Product) bool {
						_ = table.Append([]string{
							product.ID,
							product.Name,
							product.Type,
							formatValue(product.Category),
							formatTime(product.CreateTime),
						})

						return true
					})
				})
		},
	}

	cmd.Flags().IntVar(&opts.PageCount, "pages", 1, "number of pages to fetch")
	cmd.Flags().BoolVar(&opts.All, "all", false, "fetch every page")

	return cmd
}

func newProductsGetCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "get PRODUCT_ID",
		Short: "Get product details",
		Long:  "Display detailed information about a catalog product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newIdentifiedClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			product, err := client.Products().Get(commandContext(cmd), args[0], noCache)
			if err != nil {
				return fmt.Errorf("failed to get product: %w", err)
			}

			return renderProduct(cmd, product)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "fetch from the platform even if cached")

	return cmd
}

func newProductsCreateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a catalog product",
		Long: `Create a catalog product from a YAML template.

Example template:

  name: Video Streaming Service
  type: SERVICE
  category: SOFTWARE
  home_url: https://example.com/home`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFile(cmd, file)
			if err != nil {
				return err
			}

			template, err := parseProductTemplate(data)
			if err != nil {
				return err
			}

			client, err := newIdentifiedClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			product, err := client.Products().Create(commandContext(cmd), template)
			if err != nil {
				return fmt.Errorf("failed to create product: %w", err)
			}

			return renderProduct(cmd, product)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "product template file, - for standard input")

	return cmd
}

func newProductsUpdateCommand() *cobra.Command {
	var description, category, imageURL, homeURL string

	cmd := &cobra.Command{
		Use:   "update PRODUCT_ID",
		Short: "Update a catalog product",
		Long:  "Replace the patchable fields of a catalog product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := paybill.NewProductPatch()
			flags := cmd.Flags()

			steps := []struct {
				flag string
				set  func() error
			}{
				{"description", func() error { return patch.SetDescription(description) }},
				{"category", func() error { return patch.SetCategory(category) }},
				{"image-url", func() error { return patch.SetImageURL(imageURL) }},
				{"home-url", func() error { return patch.SetHomeURL(homeURL) }},
			}

			for _, step := range steps {
				if !flags.Changed(step.flag) {
					continue
				}

				err := step.set()
				if err != nil {
					return err
				}
			}

			if patch.Len() == 0 {
				return constants.ErrNoPatchFields
			}

			client, err := newIdentifiedClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			product, err := client.Products().Get(commandContext(cmd), args[0], false)
			if err != nil {
				return fmt.Errorf("failed to get product: %w", err)
			}

			err = product.Update(commandContext(cmd), patch)
			if err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}

			return renderProduct(cmd, product)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "product description")
	cmd.Flags().StringVar(&category, "category", "", "product category")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "product image URL")
	cmd.Flags().StringVar(&homeURL, "home-url", "", "product home page URL")

	return cmd
}

func renderProduct(cmd *cobra.Command, product *paybill.Product) error {
	return render(cmd, product, []string{"Property", "Value"}, func(table *tablewriter.Table) {
		_ = table.Append([]string{"ID", product.ID})
		_ = table.Append([]string{"Name", product.Name})
		_ = table.Append([]string{"Type", product.Type})
		_ = table.Append([]string{"Category", formatValue(product.Category)})
		_ = table.Append([]string{"Description", formatValue(product.Description)})
		_ = table.Append([]string{"Home URL", formatValue(product.HomeURL)})
		_ = table.Append([]string{"Created", formatTime(product.CreateTime)})
	})
}
